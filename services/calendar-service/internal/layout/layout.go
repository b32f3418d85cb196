package layout

import (
	"time"

	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/model"
)

// PositionedAppointment is a record plus its placement on the week grid.
// Top and Height are pixels from the grid's first hour; Left is the
// fraction of the grid width where the day column begins.
type PositionedAppointment struct {
	model.AppointmentRecord
	DayColumn         int      `json:"day_column"`
	Top               float64  `json:"top"`
	Height            float64  `json:"height"`
	Left              float64  `json:"left"`
	Width             float64  `json:"width"`
	TreatmentCategory Category `json:"treatment_category"`
	Color             string   `json:"color"`
	ClassName         string   `json:"class_name"`
}

type Week struct {
	Start        time.Time               `json:"week_start"`
	Appointments []PositionedAppointment `json:"appointments"`
	Skipped      []model.Rejection       `json:"skipped"`
}

// LayoutWeek positions every record of the week beginning at weekStart.
// Records outside the week are left out silently; malformed ones are
// reported in Skipped. Placement is not clipped to the visible hours.
func LayoutWeek(records []model.AppointmentRecord, weekStart time.Time, startHour, pixelsPerHour int) Week {
	week := Week{
		Start:        WeekStart(weekStart),
		Appointments: []PositionedAppointment{},
		Skipped:      []model.Rejection{},
	}
	pph := float64(pixelsPerHour)
	for _, rec := range records {
		appt, err := rec.Parse()
		if err != nil {
			week.Skipped = append(week.Skipped, model.Reject(rec.ID, err))
			continue
		}
		col, ok := WeekdayColumn(appt.Date, week.Start)
		if !ok {
			continue
		}
		start, end := appt.Start.DecimalHours(), appt.End.DecimalHours()
		category := TreatmentCategory(rec.Detail)

		week.Appointments = append(week.Appointments, PositionedAppointment{
			AppointmentRecord: rec,
			DayColumn:         col,
			Top:               (start - float64(startHour)) * pph,
			Height:            (end - start) * pph,
			Left:              float64(col) / DaysPerWeek,
			Width:             1.0 / DaysPerWeek,
			TreatmentCategory: category,
			Color:             ColorFor(category),
			ClassName:         ClassName(category),
		})
	}
	return week
}

// Layout is LayoutWeek driven by a Grid.
func (g Grid) Layout(records []model.AppointmentRecord, weekStart time.Time) (Week, error) {
	if err := g.Validate(); err != nil {
		return Week{}, err
	}
	return LayoutWeek(records, weekStart, g.StartHour, g.PixelsPerHour), nil
}
