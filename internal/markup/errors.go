package markup

import (
	"errors"
	"fmt"
)

// ErrUnsupportedStructure is matched by every UnsupportedStructureError.
var ErrUnsupportedStructure = errors.New("unsupported markdown structure")

// UnsupportedStructureError reports markdown the target markup cannot
// express. Tables are the only such structure today.
type UnsupportedStructureError struct {
	Line int    // 1-based line number of the first offending line
	Text string // the offending line as written
}

func (e *UnsupportedStructureError) Error() string {
	return fmt.Sprintf("tables in markdown are not supported (line %d: %q)", e.Line, e.Text)
}

// Is lets errors.Is(err, ErrUnsupportedStructure) match.
func (e *UnsupportedStructureError) Is(target error) bool {
	return target == ErrUnsupportedStructure
}
