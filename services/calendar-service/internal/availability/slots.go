package availability

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/model"
)

// SlotDuration is the fixed length of a bookable slot.
const SlotDuration = 30 * time.Minute

// Interval is a half-open [Start, End) span of minutes within one day.
type Interval struct {
	Start model.TimeOfDay
	End   model.TimeOfDay
}

// Overlaps reports a non-empty intersection. Abutting intervals do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}

type Slot struct {
	Start model.TimeOfDay `json:"start"`
	End   model.TimeOfDay `json:"end"`
}

type Reason string

const (
	ReasonAvailable    Reason = "available"
	ReasonNotScheduled Reason = "not_scheduled"
	ReasonFullyBooked  Reason = "fully_booked"
)

type Request struct {
	// DentistID filters schedule entries and appointments that carry a
	// dentist; zero means the inputs already belong to one dentist.
	DentistID    int64
	Date         time.Time
	Schedule     []model.WorkingDaySchedule
	Appointments []model.Appointment
	// Now, when set and on Date, drops candidates that already started.
	// It must be expressed in the clinic's local time.
	Now time.Time
}

type Result struct {
	Date     time.Time
	Weekday  model.Weekday
	Reason   Reason
	Slots    []Slot
	Rejected []model.Rejection
}

// Message is a human readable explanation of an empty result.
func (r Result) Message() string {
	switch r.Reason {
	case ReasonNotScheduled:
		return fmt.Sprintf("dentist is not scheduled on %s", r.Weekday)
	case ReasonFullyBooked:
		return fmt.Sprintf("no free slots left on %s", r.Date.Format(model.DateLayout))
	}
	return ""
}

func ComputeAvailableSlots(schedule []model.WorkingDaySchedule, date time.Time, appointments []model.Appointment) Result {
	return Compute(Request{Date: date, Schedule: schedule, Appointments: appointments})
}

// Compute returns the free 30-minute slots of one dentist on one date, in
// chronological order. It holds no state and is safe to call repeatedly.
func Compute(req Request) Result {
	day := model.WeekdayOf(req.Date)
	res := Result{
		Date:    model.DateOf(req.Date),
		Weekday: day,
		Slots:   []Slot{},
	}

	entry, ok, rejected := lookupDay(req.Schedule, day, req.DentistID)
	res.Rejected = append(res.Rejected, rejected...)
	if !ok {
		res.Reason = ReasonNotScheduled
		return res
	}

	busy, rejected := busyIntervals(req.Appointments, req.Date, req.DentistID)
	res.Rejected = append(res.Rejected, rejected...)

	notBefore := model.TimeOfDay(-1)
	if !req.Now.IsZero() && model.SameDate(req.Now, req.Date) {
		notBefore = model.ClockOf(req.Now)
	}

	for _, c := range Candidates(entry.Start(), entry.End(), SlotDuration) {
		if c.Start < notBefore {
			continue
		}
		if overlapsAny(c, busy) {
			continue
		}
		res.Slots = append(res.Slots, Slot{Start: c.Start, End: c.End})
	}

	res.Reason = ReasonAvailable
	if len(res.Slots) == 0 {
		res.Reason = ReasonFullyBooked
	}
	return res
}

// Candidates partitions [start, end) into consecutive slots of length step.
// A trailing remainder shorter than step is dropped.
func Candidates(start, end model.TimeOfDay, step time.Duration) []Interval {
	size := model.TimeOfDay(step / time.Minute)
	if size <= 0 || end <= start {
		return nil
	}
	out := make([]Interval, 0, int(end-start)/int(size))
	for t := start; t+size <= end; t += size {
		out = append(out, Interval{Start: t, End: t + size})
	}
	return out
}

func lookupDay(schedule []model.WorkingDaySchedule, day model.Weekday, dentistID int64) (model.WorkingDaySchedule, bool, []model.Rejection) {
	var (
		found    model.WorkingDaySchedule
		ok       bool
		rejected []model.Rejection
	)
	for _, s := range schedule {
		if s.Day != day || !sameDentist(s.DentistID, dentistID) {
			continue
		}
		if err := s.Validate(); err != nil {
			rej := model.Reject(0, err)
			rej.Day = s.Day.String()
			rejected = append(rejected, rej)
			continue
		}
		if ok {
			rejected = append(rejected, model.Rejection{
				Day:    s.Day.String(),
				Reason: model.ReasonDuplicateDay,
				Detail: fmt.Errorf("%w: %s", model.ErrDuplicateDay, s.Day).Error(),
			})
			continue
		}
		found, ok = s, true
	}
	return found, ok, rejected
}

func busyIntervals(appts []model.Appointment, date time.Time, dentistID int64) ([]Interval, []model.Rejection) {
	var (
		busy     []Interval
		rejected []model.Rejection
	)
	for _, a := range appts {
		if !model.SameDate(a.Date, date) || !sameDentist(a.DentistID, dentistID) {
			continue
		}
		if a.Start >= a.End {
			rejected = append(rejected, model.Reject(a.ID, fmt.Errorf("%w: %s-%s", model.ErrInvalidRange, a.Start, a.End)))
			continue
		}
		busy = append(busy, Interval{Start: a.Start, End: a.End})
	}
	return busy, rejected
}

func sameDentist(recordDentist, wanted int64) bool {
	return wanted == 0 || recordDentist == 0 || recordDentist == wanted
}

func overlapsAny(slot Interval, busy []Interval) bool {
	for _, b := range busy {
		if slot.Overlaps(b) {
			return true
		}
	}
	return false
}
