package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// IntervalSchedule runs a job at a fixed interval, measured from the end
// of the previous run.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule creates a new IntervalSchedule.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{Interval: interval}
}

// Next returns the next scheduled time.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String returns the string representation of the schedule.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval.String())
}

// DailySchedule runs a job once a day at a fixed wall-clock time.
type DailySchedule struct {
	Hour     int
	Minute   int
	Location *time.Location
}

// NewDailySchedule creates a schedule firing at hour:minute in the given
// location. A nil location means UTC.
func NewDailySchedule(hour, minute int, loc *time.Location) (*DailySchedule, error) {
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("daily schedule: hour %d out of range", hour)
	}
	if minute < 0 || minute > 59 {
		return nil, fmt.Errorf("daily schedule: minute %d out of range", minute)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DailySchedule{Hour: hour, Minute: minute, Location: loc}, nil
}

// ParseDailyTime parses an "HH:MM" wall-clock spec into a DailySchedule.
func ParseDailyTime(spec string, loc *time.Location) (*DailySchedule, error) {
	parts := strings.Split(strings.TrimSpace(spec), ":")
	if len(parts) != 2 {
		return nil, fmt.Errorf("daily schedule: invalid time spec %q, want HH:MM", spec)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, fmt.Errorf("daily schedule: invalid hour in %q", spec)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("daily schedule: invalid minute in %q", spec)
	}

	return NewDailySchedule(hour, minute, loc)
}

// Next returns the next occurrence of the configured wall-clock time
// strictly after t.
func (s *DailySchedule) Next(t time.Time) time.Time {
	t = t.In(s.Location)
	next := time.Date(t.Year(), t.Month(), t.Day(), s.Hour, s.Minute, 0, 0, s.Location)
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// String returns the string representation of the schedule.
func (s *DailySchedule) String() string {
	return fmt.Sprintf("daily at %02d:%02d", s.Hour, s.Minute)
}
