package kvstore

import (
	"fmt"
	"unicode/utf8"
)

// TrimPartialRune drops a trailing multi-byte rune that was cut short by a
// size ceiling.
func TrimPartialRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return b[:i]
			}
			break
		}
	}
	return b
}

// CapValue cuts b to at most max bytes and checks that the result is UTF-8
// text. A max of zero leaves b uncapped.
func CapValue(b []byte, max uint64) (string, error) {
	if max > 0 && uint64(len(b)) >= max {
		b = TrimPartialRune(b[:max])
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: not valid UTF-8", ErrInvalidValue)
	}
	return string(b), nil
}
