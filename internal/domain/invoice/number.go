package invoice

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatNumber renders a yearly sequence as YYYY-NNNN
func FormatNumber(year, seq int) string {
	return fmt.Sprintf("%04d-%04d", year, seq)
}

// ParseNumber splits a YYYY-NNNN invoice number
func ParseNumber(number string) (year, seq int, ok bool) {
	parts := strings.SplitN(number, "-", 2)
	if len(parts) != 2 || len(parts[0]) != 4 {
		return 0, 0, false
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	s, err := strconv.Atoi(parts[1])
	if err != nil || s < 1 {
		return 0, 0, false
	}
	return y, s, true
}
