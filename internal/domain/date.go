package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used by clients and the CLI.
const DateLayout = "2006-01-02"

// DeliveryDate is a requested delivery day. Clients send either a bare
// calendar day ("2025-03-17") or an RFC 3339 timestamp.
type DeliveryDate struct {
	Time time.Time
	// DateOnly marks a bare calendar day with no zone of its own.
	DateOnly bool
}

// ParseDeliveryDate accepts "2006-01-02" or RFC 3339.
func ParseDeliveryDate(value string) (DeliveryDate, error) {
	if day, err := time.Parse(DateLayout, value); err == nil {
		return DeliveryDate{Time: day, DateOnly: true}, nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return DeliveryDate{}, fmt.Errorf("delivery date %q must be YYYY-MM-DD or RFC 3339", value)
	}
	return DeliveryDate{Time: ts}, nil
}

// At returns the date in loc. A bare day lands at local noon so it stays on
// the same calendar day whatever the offset.
func (d DeliveryDate) At(loc *time.Location) time.Time {
	if d.DateOnly {
		y, m, day := d.Time.Date()
		return time.Date(y, m, day, 12, 0, 0, 0, loc)
	}
	return d.Time.In(loc)
}

func (d DeliveryDate) IsZero() bool { return d.Time.IsZero() }

func (d *DeliveryDate) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("delivery date must be a string: %w", err)
	}
	parsed, err := ParseDeliveryDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d DeliveryDate) MarshalJSON() ([]byte, error) {
	if d.DateOnly {
		return json.Marshal(d.Time.Format(DateLayout))
	}
	return json.Marshal(d.Time.Format(time.RFC3339))
}
