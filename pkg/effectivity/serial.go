package effectivity

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidSerial is returned when a serial number has no usable digits.
var ErrInvalidSerial = errors.New("invalid serial number")

// ParseSerial strips formatting characters from a serial number and parses the digits.
// "31-050", "SN 31050" and "31050" all parse to 31050.
func ParseSerial(serialNumber string) (int, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, serialNumber)
	if digits == "" {
		return 0, ErrInvalidSerial
	}

	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return 0, ErrInvalidSerial
	}
	return n, nil
}
