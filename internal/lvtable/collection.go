package lvtable

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidOffset is returned for table offsets outside of the file.
var ErrInvalidOffset = errors.New("invalid table offset")

// Collection holds tables sorted by the file offset they are defined at.
// Each offset holds at most one table.
type Collection struct {
	offsets    []int
	tables     []*Table
	generation int
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{}
}

// Set adds the table at the offset or replaces the table already defined there.
func (c *Collection) Set(offset int, table *Table) error {
	if offset < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidOffset, offset)
	}

	index, found := slices.BinarySearch(c.offsets, offset)
	if found {
		c.tables[index] = table
	} else {
		c.offsets = slices.Insert(c.offsets, index, offset)
		c.tables = slices.Insert(c.tables, index, table)
	}
	c.generation++
	return nil
}

// Remove removes the table at the offset and returns whether it existed.
func (c *Collection) Remove(offset int) bool {
	index, found := slices.BinarySearch(c.offsets, offset)
	if !found {
		return false
	}
	c.offsets = slices.Delete(c.offsets, index, index+1)
	c.tables = slices.Delete(c.tables, index, index+1)
	c.generation++
	return true
}

// Get returns the table defined at the offset.
func (c *Collection) Get(offset int) (*Table, bool) {
	index, found := slices.BinarySearch(c.offsets, offset)
	if !found {
		return nil, false
	}
	return c.tables[index], true
}

// Len returns the number of tables.
func (c *Collection) Len() int {
	return len(c.offsets)
}

// OffsetAt returns the offset of the table at the index.
func (c *Collection) OffsetAt(index int) int {
	return c.offsets[index]
}

// TableAt returns the table at the index.
func (c *Collection) TableAt(index int) *Table {
	return c.tables[index]
}

// Offsets returns a copy of all table offsets in increasing order.
func (c *Collection) Offsets() []int {
	return slices.Clone(c.offsets)
}

// Generation returns a counter that increases on every modification.
func (c *Collection) Generation() int {
	return c.generation
}
