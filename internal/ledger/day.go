package ledger

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// DayLayout is the wire and storage layout of a calendar day.
const DayLayout = "2006-01-02"

// Day is a calendar date without a time of day. It always holds midnight UTC.
type Day struct {
	time.Time
}

// NewDay truncates t to its calendar date, keeping the year/month/day as seen in t's location.
func NewDay(t time.Time) Day {
	y, m, d := t.Date()
	return Day{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, strings.TrimSpace(s))
	if err != nil {
		return Day{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return Day{t}, nil
}

// MustParseDay is ParseDay for literals known to be valid.
func MustParseDay(s string) Day {
	d, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DayLayout)
}

// Equal reports whether both values denote the same calendar date.
func (d Day) Equal(o Day) bool {
	return d.String() == o.String()
}

func (d Day) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(`"` + d.Format(DayLayout) + `"`), nil
}

func (d *Day) UnmarshalJSON(data []byte) error {
	str := string(data)
	if str == `null` || str == `""` {
		*d = Day{}
		return nil
	}
	str = strings.Trim(str, `"`)
	// Backends sometimes hand out timestamps for date columns.
	if len(str) > len(DayLayout) {
		if t, err := time.Parse(time.RFC3339, str); err == nil {
			*d = NewDay(t)
			return nil
		}
		str = str[:len(DayLayout)]
	}
	parsed, err := ParseDay(str)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores the day as a DATE literal.
func (d Day) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Format(DayLayout), nil
}

func (d *Day) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = Day{}
		return nil
	case time.Time:
		*d = NewDay(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("unsupported scan type for Day: %T", value)
	}
}

func (d *Day) scanString(s string) error {
	if len(s) > len(DayLayout) {
		s = s[:len(DayLayout)]
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// GormDataType maps Day to a DATE column.
func (Day) GormDataType() string {
	return "date"
}
