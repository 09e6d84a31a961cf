package heading

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrDecode is matched by every DecodeError.
var ErrDecode = errors.New("input is not valid text")

// DecodeError reports the first byte that makes the input unusable as text.
type DecodeError struct {
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode: %s at byte %d", e.Reason, e.Offset)
}

func (e *DecodeError) Unwrap() error { return ErrDecode }

// Validate checks that src is UTF-8 text without NUL bytes.
func Validate(src []byte) error {
	for i := 0; i < len(src); {
		c := src[i]
		if c < utf8.RuneSelf {
			if c == 0 {
				return &DecodeError{Offset: i, Reason: "NUL byte"}
			}
			i++
			continue
		}
		r, size := utf8.DecodeRune(src[i:])
		if r == utf8.RuneError && size == 1 {
			return &DecodeError{Offset: i, Reason: "invalid UTF-8 sequence"}
		}
		i += size
	}
	return nil
}
