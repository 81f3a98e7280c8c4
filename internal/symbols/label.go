package symbols

import (
	"errors"
	"fmt"
	"regexp"
)

// MaxLabelLength is the longest label accepted.
const MaxLabelLength = 32

// ErrInvalidLabel is returned for labels that can not be used in assembler output.
var ErrInvalidLabel = errors.New("invalid label")

var labelPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]+$`)

// ValidateLabel checks that the label starts with a letter or underscore,
// continues with at least one alphanumeric character or underscore and
// does not exceed MaxLabelLength.
func ValidateLabel(label string) error {
	if len(label) > MaxLabelLength {
		return fmt.Errorf("%w: '%s' exceeds %d characters", ErrInvalidLabel, label, MaxLabelLength)
	}
	if !labelPattern.MatchString(label) {
		return fmt.Errorf("%w: '%s'", ErrInvalidLabel, label)
	}
	return nil
}
