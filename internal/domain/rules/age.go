package rules

import (
	"errors"
	"regexp"
	"strconv"
	"time"
)

// Registration accepts ages in [AgeMin, AgeMax]. The band is deliberately
// wide at the top and adult-only at the bottom.
const (
	AgeMin = 18
	AgeMax = 110
)

var (
	ErrInvalidBirthday = errors.New("invalid birthday")
	ErrAgeOutOfRange   = errors.New("age out of range")
)

var birthdayPattern = regexp.MustCompile(`^(\d{1,2})[./](\d{1,2})[./](\d{4})$`)

// ParseBirthday parses dd.mm.yyyy or dd/mm/yyyy and rejects dates that do
// not exist on the calendar (31/02 normalizes under time.Date, so the parsed
// value is compared back against its components).
func ParseBirthday(raw string) (time.Time, error) {
	groups := birthdayPattern.FindStringSubmatch(raw)
	if groups == nil {
		return time.Time{}, ErrInvalidBirthday
	}

	day, _ := strconv.Atoi(groups[1])
	month, _ := strconv.Atoi(groups[2])
	year, _ := strconv.Atoi(groups[3])

	parsed := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if parsed.Day() != day || int(parsed.Month()) != month || parsed.Year() != year {
		return time.Time{}, ErrInvalidBirthday
	}

	return parsed, nil
}

// AgeAt computes full years between birthdate and now, month/day aware:
// the year is not counted until the birthday has actually passed.
func AgeAt(birthdate, now time.Time) int {
	b := birthdate.UTC()
	n := now.UTC()

	years := n.Year() - b.Year()
	if n.Month() < b.Month() || (n.Month() == b.Month() && n.Day() < b.Day()) {
		years--
	}

	return years
}

// ValidateBirthday parses raw and checks the resulting age against the
// accepted band, returning the birthdate and the age at now.
func ValidateBirthday(raw string, now time.Time) (time.Time, int, error) {
	birthdate, err := ParseBirthday(raw)
	if err != nil {
		return time.Time{}, 0, err
	}

	age := AgeAt(birthdate, now)
	if age < AgeMin || age > AgeMax {
		return time.Time{}, 0, ErrAgeOutOfRange
	}

	return birthdate, age, nil
}
