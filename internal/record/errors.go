package record

import (
	"errors"
	"fmt"
)

// ErrStop may be returned from a Scan callback to end the scan early.
var ErrStop = errors.New("stop scan")

// BoundsError reports misuse of a File: a slot outside the header or an
// offset that does not address a stored record.
type BoundsError struct {
	Path   string
	Op     string
	Slot   int
	Offset Offset
}

func (e *BoundsError) Error() string {
	if e.Op == opInfo || e.Op == opWriteInfo {
		return fmt.Sprintf("%s %s: info slot %d out of range", e.Op, e.Path, e.Slot)
	}
	return fmt.Sprintf("%s %s: offset %d does not address a record", e.Op, e.Path, e.Offset)
}

// IsBoundsError reports whether err is or wraps a *BoundsError.
func IsBoundsError(err error) bool {
	var be *BoundsError
	return errors.As(err, &be)
}

// CountError reports a count slot that disagrees with the file length.
type CountError struct {
	Path   string
	Count  int64
	Stored int64
	Torn   bool
}

func (e *CountError) Error() string {
	if e.Torn {
		return fmt.Sprintf("%s: count %d, %d whole records and a partial tail", e.Path, e.Count, e.Stored)
	}
	return fmt.Sprintf("%s: count %d, %d records stored", e.Path, e.Count, e.Stored)
}
