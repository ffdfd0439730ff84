package validate

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var ErrBadAgeRange = errors.New("bad age range")

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

// MaxLen counts runes, not bytes, so cyrillic input is not penalized.
func MaxLen(value string, max int) bool {
	return utf8.RuneCountInString(value) <= max
}

var ageRangePattern = regexp.MustCompile(`^(\d{1,3})\s*-\s*(\d{1,3})$`)

// ParseAgeRange parses "min-max" and checks it against the accepted
// band.
func ParseAgeRange(raw string, lo, hi int) (int, int, error) {
	groups := ageRangePattern.FindStringSubmatch(strings.TrimSpace(raw))
	if groups == nil {
		return 0, 0, ErrBadAgeRange
	}

	min, _ := strconv.Atoi(groups[1])
	max, _ := strconv.Atoi(groups[2])
	if min > max || min < lo || max > hi {
		return 0, 0, ErrBadAgeRange
	}

	return min, max, nil
}
