package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInputDirNotFound is returned when the input directory is missing or not a directory.
	ErrInputDirNotFound = errors.New("input directory not found")

	// ErrSchemaRejected is returned when the schema gate fails the final table.
	ErrSchemaRejected = errors.New("schema validation rejected the final table")

	// ErrInvalidRules is returned when the rule tables carry fatal issues.
	ErrInvalidRules = errors.New("invalid rule tables")
)

// MalformedFileNameError reports a source file whose name has no leading year.
type MalformedFileNameError struct {
	Name string
}

func (e *MalformedFileNameError) Error() string {
	return fmt.Sprintf("malformed file name %q: expected <year>_<label>.<ext>", e.Name)
}
