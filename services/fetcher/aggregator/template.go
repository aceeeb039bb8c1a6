package aggregator

import (
	"errors"
	"time"
)

// HourlySlot is one row of the hourly template
type HourlySlot struct {
	Timestamp time.Time
	Day       int
	Month     int
	Hour      int
}

// BuildHourlyTemplate returns every hour in [start, end], both ends included
func BuildHourlyTemplate(start time.Time, end time.Time) ([]HourlySlot, error) {
	if end.Before(start) {
		return nil, errors.New("template end is before template start")
	}

	slots := make([]HourlySlot, 0, int(end.Sub(start)/time.Hour)+1)
	for ts := start; !ts.After(end); ts = ts.Add(time.Hour) {
		slots = append(slots, HourlySlot{
			Timestamp: ts,
			Day:       ts.Day(),
			Month:     int(ts.Month()),
			Hour:      ts.Hour(),
		})
	}

	return slots, nil
}
