package anattrib

// Store holds one attribute record per byte of the input file.
type Store struct {
	attribs []Attrib
}

// NewStore returns a store with length zero-initialized records.
func NewStore(length int) *Store {
	s := &Store{}
	s.Allocate(length)
	return s
}

// Allocate replaces all records with length zero-initialized records.
func (s *Store) Allocate(length int) {
	s.attribs = make([]Attrib, length)
}

// Reset zeroes all records, keeping the allocation.
func (s *Store) Reset() {
	clear(s.attribs)
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.attribs)
}

// At returns the record of the offset for in-place modification.
func (s *Store) At(offset int) *Attrib {
	return &s.attribs[offset]
}

// IsStart returns whether an instruction or a formatted data item starts at the offset.
func (s *Store) IsStart(offset int) bool {
	if offset < 0 || offset >= len(s.attribs) {
		return false
	}
	return s.attribs[offset].IsStart()
}
