package model

import "fmt"

// Date is a best-effort normalized calendar date. The zero value is the
// unknown-date sentinel: documents frequently carry values with no
// recoverable date, and those facts still belong on the timeline.
//
// Known dates have Year > 0, Month in [1,12] and Day in [1,31]. Forms
// lacking a month or day (e.g., "Nov 2020", "2019") default the missing
// field to 1.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// UnknownDate is the sentinel for facts with no recoverable date.
var UnknownDate = Date{}

// IsUnknown reports whether the date is the unknown sentinel.
func (d Date) IsUnknown() bool {
	return d.Year == 0
}

// Compare gives the total ordering over dates: the unknown sentinel
// sorts before every known date, then ascending (year, month, day).
// Returns -1, 0, or 1.
func (d Date) Compare(other Date) int {
	du, ou := d.IsUnknown(), other.IsUnknown()
	switch {
	case du && ou:
		return 0
	case du:
		return -1
	case ou:
		return 1
	}
	if c := cmpInt(d.Year, other.Year); c != 0 {
		return c
	}
	if c := cmpInt(d.Month, other.Month); c != 0 {
		return c
	}
	return cmpInt(d.Day, other.Day)
}

// Before reports whether d sorts strictly before other.
func (d Date) Before(other Date) bool {
	return d.Compare(other) < 0
}

// String renders the date as YYYY-MM-DD, or "unknown".
func (d Date) String() string {
	if d.IsUnknown() {
		return "unknown"
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Valid reports whether the date is either the unknown sentinel or a
// plausible known date.
func (d Date) Valid() bool {
	if d.IsUnknown() {
		return true
	}
	return d.Year >= 1900 && d.Year <= 2100 &&
		d.Month >= 1 && d.Month <= 12 &&
		d.Day >= 1 && d.Day <= 31
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
