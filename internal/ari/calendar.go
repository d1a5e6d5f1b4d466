package ari

import "time"

// DateLayout is the wire format for stay dates.
const DateLayout = "2006-01-02"

// NormalizeDate truncates a timestamp to its calendar day in UTC.  Every key
// comparison on (room type, date) tuples happens on normalized dates.
func NormalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a normalized UTC date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return NormalizeDate(t), nil
}

// Nights returns the number of nights in [checkIn, checkOut).  Zero or
// negative spans yield 0.
func Nights(checkIn, checkOut time.Time) int {
	n := int(NormalizeDate(checkOut).Sub(NormalizeDate(checkIn)).Hours() / 24)
	if n < 0 {
		return 0
	}
	return n
}

// DatesBetween enumerates every normalized date in [from, to].  Both bounds
// are inclusive, matching the admin date-range contract.
func DatesBetween(from, to time.Time) []time.Time {
	from, to = NormalizeDate(from), NormalizeDate(to)
	if to.Before(from) {
		return nil
	}
	var out []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// StayDates enumerates every night of a stay, i.e. [checkIn, checkOut).
func StayDates(checkIn, checkOut time.Time) []time.Time {
	checkIn, checkOut = NormalizeDate(checkIn), NormalizeDate(checkOut)
	var out []time.Time
	for d := checkIn; d.Before(checkOut); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}
