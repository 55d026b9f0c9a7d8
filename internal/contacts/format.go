package contacts

import (
	"fmt"
	"strings"
)

// FormatHandle renders a raw handle for display when no contact name is
// available. 10-digit and 11-digit (leading "1") North American phone
// numbers get standard grouping punctuation; emails and anything else
// pass through unchanged.
func FormatHandle(handle string) string {
	if handle == "" || strings.ContainsRune(handle, '@') {
		return handle
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, handle)
	switch {
	case len(digits) == 10:
		return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
	case len(digits) == 11 && digits[0] == '1':
		return fmt.Sprintf("+1 (%s) %s-%s", digits[1:4], digits[4:7], digits[7:])
	}
	return handle
}
