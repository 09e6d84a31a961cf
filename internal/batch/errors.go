package batch

import (
	"errors"
	"fmt"
)

// ErrIO is matched by every IOError.
var ErrIO = errors.New("i/o error")

// IOError reports a failed filesystem or stream operation.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }
