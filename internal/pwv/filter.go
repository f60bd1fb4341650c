package pwv

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidArgument marks a rejected query argument.
var ErrInvalidArgument = errors.New("invalid argument")

// FirstYear is the first year with SuomiNet data for Kitt Peak.
const FirstYear = 2010

// Filter narrows a table to dates whose UTC components equal every set
// field. Nil fields do not constrain.
type Filter struct {
	Year  *int
	Month *int
	Day   *int
	Hour  *int
}

// Validate checks each set field against its accepted range. The upper
// bound for Year is the current year as reported by now.
func (f Filter) Validate(now time.Time) error {
	if f.Year != nil {
		if *f.Year < FirstYear {
			return fmt.Errorf("%w: no data is provided for years prior to %d", ErrInvalidArgument, FirstYear)
		}
		if *f.Year > now.Year() {
			return fmt.Errorf("%w: year %d is larger than the current year", ErrInvalidArgument, *f.Year)
		}
	}
	if f.Month != nil && (*f.Month < 0 || *f.Month > 12) {
		return fmt.Errorf("%w: invalid value for month: %d", ErrInvalidArgument, *f.Month)
	}
	if f.Day != nil && (*f.Day < 0 || *f.Day > 31) {
		return fmt.Errorf("%w: invalid value for day: %d", ErrInvalidArgument, *f.Day)
	}
	if f.Hour != nil && (*f.Hour < 0 || *f.Hour > 24) {
		return fmt.Errorf("%w: invalid value for hour: %d", ErrInvalidArgument, *f.Hour)
	}
	return nil
}

// Match reports whether t satisfies the filter.
func (f Filter) Match(t time.Time) bool {
	t = t.UTC()
	if f.Year != nil && t.Year() != *f.Year {
		return false
	}
	if f.Month != nil && int(t.Month()) != *f.Month {
		return false
	}
	if f.Day != nil && t.Day() != *f.Day {
		return false
	}
	if f.Hour != nil && t.Hour() != *f.Hour {
		return false
	}
	return true
}

// ValidateYear checks a year passed to UpdateModels.
func ValidateYear(year int, now time.Time) error {
	if year < FirstYear {
		return fmt.Errorf("%w: cannot update models for years prior to %d", ErrInvalidArgument, FirstYear)
	}
	if year > now.Year() {
		return fmt.Errorf("%w: cannot update models for years greater than current year", ErrInvalidArgument)
	}
	return nil
}
