package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MinWorkingHours is the shortest working window a dentist may register.
// Enforced when schedules are created, not by the availability calculator.
const MinWorkingHours = 5

// WorkingDaySchedule is one weekday a dentist works, in whole hours.
type WorkingDaySchedule struct {
	DentistID int64   `json:"dentist,omitempty"`
	Day       Weekday `json:"day"`
	StartHour int     `json:"start_hour"`
	EndHour   int     `json:"end_hour"`
}

func (s WorkingDaySchedule) Validate() error {
	if !s.Day.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownWeekday, int(s.Day))
	}
	if s.StartHour < 0 || s.StartHour > 23 || s.EndHour < 0 || s.EndHour > 23 {
		return fmt.Errorf("%w: hours must be within 0..23 (got %d-%d)", ErrInvalidRange, s.StartHour, s.EndHour)
	}
	if s.StartHour >= s.EndHour {
		return fmt.Errorf("%w: %s %d-%d", ErrInvalidRange, s.Day, s.StartHour, s.EndHour)
	}
	return nil
}

// ValidateWorkingWindow applies the schedule-creation rules, including the
// minimum daily duration.
func ValidateWorkingWindow(s WorkingDaySchedule) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.EndHour-s.StartHour < MinWorkingHours {
		return fmt.Errorf("%w: %s needs at least %d hours", ErrWindowTooShort, s.Day, MinWorkingHours)
	}
	return nil
}

func (s WorkingDaySchedule) Start() TimeOfDay { return NewTimeOfDay(s.StartHour, 0) }
func (s WorkingDaySchedule) End() TimeOfDay   { return NewTimeOfDay(s.EndHour, 0) }

// HourValue is an hour field the backend sends either as a number, a bare
// string ("9") or a clock string ("09:00:00").
type HourValue string

func (h *HourValue) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*h = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*h = HourValue(v)
		return nil
	}
	*h = HourValue(s)
	return nil
}

// Hour parses the value into a whole hour.
func (h HourValue) Hour() (int, error) {
	s := strings.TrimSpace(string(h))
	if !strings.Contains(s, ":") {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n > 23 {
			return 0, fmt.Errorf("%w: hour %q", ErrMalformedTime, s)
		}
		return n, nil
	}
	t, err := ParseTimeOfDay(s)
	if err != nil {
		return 0, err
	}
	if t.Minute() != 0 {
		return 0, fmt.Errorf("%w: working hours must be whole hours (got %q)", ErrMalformedTime, s)
	}
	return t.Hour(), nil
}

// ScheduleRecord is the wire form of a schedule entry:
// {"day": "Monday", "start_hour": "9", "end_hour": "17"}.
type ScheduleRecord struct {
	Dentist   int64     `json:"dentist,omitempty"`
	Day       string    `json:"day"`
	StartHour HourValue `json:"start_hour"`
	EndHour   HourValue `json:"end_hour"`
}

func (r ScheduleRecord) Parse() (WorkingDaySchedule, error) {
	day, err := ParseWeekday(r.Day)
	if err != nil {
		return WorkingDaySchedule{}, err
	}
	start, err := r.StartHour.Hour()
	if err != nil {
		return WorkingDaySchedule{}, fmt.Errorf("start_hour: %w", err)
	}
	end, err := r.EndHour.Hour()
	if err != nil {
		return WorkingDaySchedule{}, fmt.Errorf("end_hour: %w", err)
	}
	s := WorkingDaySchedule{DentistID: r.Dentist, Day: day, StartHour: start, EndHour: end}
	if err := s.Validate(); err != nil {
		return WorkingDaySchedule{}, err
	}
	return s, nil
}

// ParseSchedule converts wire records, keeping the first entry per dentist
// and weekday and rejecting anything else.
func ParseSchedule(records []ScheduleRecord) ([]WorkingDaySchedule, []Rejection) {
	var out []WorkingDaySchedule
	var rejected []Rejection
	type key struct {
		dentist int64
		day     Weekday
	}
	seen := map[key]bool{}
	for _, rec := range records {
		s, err := rec.Parse()
		if err != nil {
			rej := Reject(0, err)
			rej.Day = rec.Day
			rejected = append(rejected, rej)
			continue
		}
		if seen[key{s.DentistID, s.Day}] {
			rejected = append(rejected, Rejection{
				Day:    rec.Day,
				Reason: ReasonDuplicateDay,
				Detail: fmt.Errorf("%w: %s", ErrDuplicateDay, s.Day).Error(),
			})
			continue
		}
		seen[key{s.DentistID, s.Day}] = true
		out = append(out, s)
	}
	return out, rejected
}
