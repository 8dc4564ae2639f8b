package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

var ErrInvalidRange = errors.New("check-out date must be after check-in date")

// Date is a calendar day. The zero value is the zero time's day.
// Internally it is always midnight UTC so comparisons never depend on location.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t as observed in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return Date{t: t}, nil
}

func (d Date) Time() time.Time { return d.t }

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

func (d Date) After(other Date) bool { return d.t.After(other.t) }

func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// DaysUntil returns the number of whole days from d to other (negative when other is earlier).
func (d Date) DaysUntil(other Date) int {
	return int(other.t.Sub(d.t).Hours() / 24)
}

func (d Date) String() string {
	return d.t.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateRange is the half-open stay interval [CheckIn, CheckOut).
type DateRange struct {
	CheckIn  Date `json:"check_in"`
	CheckOut Date `json:"check_out"`
}

func NewDateRange(checkIn, checkOut Date) (DateRange, error) {
	if checkIn.IsZero() || checkOut.IsZero() || !checkIn.Before(checkOut) {
		return DateRange{}, ErrInvalidRange
	}
	return DateRange{CheckIn: checkIn, CheckOut: checkOut}, nil
}

func (r DateRange) Nights() int {
	return r.CheckIn.DaysUntil(r.CheckOut)
}

// Overlaps reports whether the two stays share at least one night.
// Every overlap check in the system, including store queries, uses this inequality pair.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(r.CheckOut)
}

func (r DateRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.CheckIn, r.CheckOut)
}
