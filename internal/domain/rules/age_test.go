package rules

import (
	"errors"
	"testing"
	"time"
)

func TestParseBirthdayFormats(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		year    int
		month   time.Month
		day     int
	}{
		{name: "dots", raw: "15.06.1990", year: 1990, month: time.June, day: 15},
		{name: "slashes", raw: "15/06/1990", year: 1990, month: time.June, day: 15},
		{name: "single digit day and month", raw: "1/1/2000", year: 2000, month: time.January, day: 1},
		{name: "nonexistent date", raw: "31/02/1990", wantErr: true},
		{name: "garbage", raw: "birthday", wantErr: true},
		{name: "two digit year", raw: "15/06/90", wantErr: true},
		{name: "mixed separators", raw: "15.06/1990", year: 1990, month: time.June, day: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBirthday(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidBirthday) {
					t.Fatalf("expected ErrInvalidBirthday, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse birthday: %v", err)
			}
			if got.Year() != tt.year || got.Month() != tt.month || got.Day() != tt.day {
				t.Fatalf("unexpected date: got %v", got)
			}
		})
	}
}

func TestAgeAtIsMonthDayAware(t *testing.T) {
	birthdate := time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC)

	before := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	if got := AgeAt(birthdate, before); got != 33 {
		t.Fatalf("age before birthday: got %d want 33", got)
	}

	onBirthday := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	if got := AgeAt(birthdate, onBirthday); got != 34 {
		t.Fatalf("age on birthday: got %d want 34", got)
	}
}

func TestValidateBirthdayBand(t *testing.T) {
	now := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

	if _, _, err := ValidateBirthday("01/01/2010", now); !errors.Is(err, ErrAgeOutOfRange) {
		t.Fatalf("expected ErrAgeOutOfRange for minor, got %v", err)
	}
	if _, _, err := ValidateBirthday("01/01/1900", now); !errors.Is(err, ErrAgeOutOfRange) {
		t.Fatalf("expected ErrAgeOutOfRange for age above band, got %v", err)
	}

	birthdate, age, err := ValidateBirthday("01/01/2000", now)
	if err != nil {
		t.Fatalf("validate birthday: %v", err)
	}
	if age != 24 {
		t.Fatalf("unexpected age: got %d want 24", age)
	}
	if birthdate.Year() != 2000 {
		t.Fatalf("unexpected birthdate year: %d", birthdate.Year())
	}
}
