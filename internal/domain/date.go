package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

const dateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// Date is a calendar day without a time of day or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate accepts "2006-01-02" or an RFC 3339 timestamp. Timestamps are
// moved into loc before the day is taken.
func ParseDate(s string, loc *time.Location) (Date, error) {
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t.In(loc)), nil
}

func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 12, 0, 0, 0, time.UTC))
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	t, err := time.Parse(dateLayout, string(b))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, string(b))
	}
	*d = DateOf(t)
	return nil
}

// Calendar answers "what day is it" for date-only rules.
type Calendar struct {
	clock    clockwork.Clock
	location *time.Location
}

func NewCalendar(clock clockwork.Clock, location *time.Location) Calendar {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if location == nil {
		location = time.Local
	}
	return Calendar{clock: clock, location: location}
}

func (c Calendar) Now() time.Time {
	if c.clock == nil {
		return time.Now()
	}
	return c.clock.Now()
}

func (c Calendar) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

func (c Calendar) Today() Date {
	return DateOf(c.Now().In(c.Location()))
}
