package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestWeekdayOfIsMondayBased(t *testing.T) {
	// 2026-01-05 is a Monday, 2026-01-11 a Sunday.
	monday := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		got := WeekdayOf(monday.AddDate(0, 0, i))
		if got != Weekday(i) {
			t.Fatalf("day %d: expected %s, got %s", i, Weekday(i), got)
		}
	}
	if got := WeekdayOf(time.Date(2026, 1, 11, 23, 59, 0, 0, time.UTC)); got != Sunday {
		t.Fatalf("expected Sunday, got %s", got)
	}
}

func TestParseWeekday(t *testing.T) {
	for in, want := range map[string]Weekday{"Monday": Monday, "sunday": Sunday, " WED ": Wednesday} {
		got, err := ParseWeekday(in)
		if err != nil || got != want {
			t.Fatalf("ParseWeekday(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseWeekday("Funday"); !errors.Is(err, ErrUnknownWeekday) {
		t.Fatalf("expected ErrUnknownWeekday, got %v", err)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	cases := map[string]TimeOfDay{
		"09:30":    NewTimeOfDay(9, 30),
		"9:30":     NewTimeOfDay(9, 30),
		"16:30:00": NewTimeOfDay(16, 30),
		"00:00":    0,
		"23:59:59": NewTimeOfDay(23, 59),
	}
	for in, want := range cases {
		got, err := ParseTimeOfDay(in)
		if err != nil || got != want {
			t.Fatalf("ParseTimeOfDay(%q) = %v, %v", in, got, err)
		}
	}
	for _, bad := range []string{"garbage", "", "24:00", "9", "09:60", "09:5", "+9:00", "09:30:00:00"} {
		if _, err := ParseTimeOfDay(bad); !errors.Is(err, ErrMalformedTime) {
			t.Fatalf("ParseTimeOfDay(%q): expected ErrMalformedTime, got %v", bad, err)
		}
	}
}

func TestTimeOfDayFormatting(t *testing.T) {
	v := NewTimeOfDay(9, 30)
	if v.String() != "09:30" || v.DecimalHours() != 9.5 {
		t.Fatalf("unexpected %s / %v", v, v.DecimalHours())
	}
	if got := v.Add(30 * time.Minute); got.String() != "10:00" {
		t.Fatalf("unexpected add result %s", got)
	}
	b, _ := json.Marshal(v)
	if string(b) != `"09:30"` {
		t.Fatalf("unexpected json %s", b)
	}
}

func TestScheduleRecordParse(t *testing.T) {
	var recs []ScheduleRecord
	raw := `[
		{"day":"Monday","start_hour":"9","end_hour":"17"},
		{"day":"Wednesday","start_hour":9,"end_hour":17},
		{"day":"Friday","start_hour":"09:00:00","end_hour":"17:00:00"},
		{"day":"Monday","start_hour":"10","end_hour":"16"},
		{"day":"Tuesday","start_hour":"17","end_hour":"9"},
		{"day":"Someday","start_hour":"9","end_hour":"17"},
		{"day":"Saturday","start_hour":"09:30","end_hour":"17"}
	]`
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	sched, rejected := ParseSchedule(recs)
	if len(sched) != 3 {
		t.Fatalf("expected 3 valid entries, got %d (%+v)", len(sched), sched)
	}
	if sched[0].Day != Monday || sched[0].StartHour != 9 || sched[0].EndHour != 17 {
		t.Fatalf("unexpected first entry %+v", sched[0])
	}
	reasons := map[string]bool{}
	for _, r := range rejected {
		reasons[r.Reason] = true
	}
	for _, want := range []string{ReasonDuplicateDay, ReasonInvalidRange, ReasonUnknownWeekday, ReasonMalformedTime} {
		if !reasons[want] {
			t.Fatalf("expected a %s rejection, got %+v", want, rejected)
		}
	}
}

func TestValidateWorkingWindow(t *testing.T) {
	if err := ValidateWorkingWindow(WorkingDaySchedule{Day: Monday, StartHour: 9, EndHour: 13}); !errors.Is(err, ErrWindowTooShort) {
		t.Fatalf("expected ErrWindowTooShort, got %v", err)
	}
	if err := ValidateWorkingWindow(WorkingDaySchedule{Day: Monday, StartHour: 9, EndHour: 14}); err != nil {
		t.Fatalf("expected 5h window to pass, got %v", err)
	}
}

func TestAppointmentRecordParse(t *testing.T) {
	recs := []AppointmentRecord{
		{ID: 1, Date: "2026-01-07", StartTime: "09:30:00", EndTime: "10:30:00", Dentist: 3},
		{ID: 2, Date: "2026-01-07", StartTime: "garbage", EndTime: "10:30"},
		{ID: 3, Date: "2026-01-07", StartTime: "11:00", EndTime: "11:00"},
		{ID: 4, Date: "07/01/2026", StartTime: "11:00", EndTime: "11:30"},
	}
	appts, rejected := ParseAppointments(recs)
	if len(appts) != 1 || appts[0].ID != 1 || appts[0].Start != NewTimeOfDay(9, 30) {
		t.Fatalf("unexpected parsed appointments %+v", appts)
	}
	if len(rejected) != 3 {
		t.Fatalf("expected 3 rejections, got %+v", rejected)
	}
	want := []string{ReasonMalformedTime, ReasonInvalidRange, ReasonMalformedDate}
	for i, r := range rejected {
		if r.Reason != want[i] || r.ID != recs[i+1].ID {
			t.Fatalf("rejection %d: got %+v, want reason %s", i, r, want[i])
		}
	}
}
