package layout

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/model"
)

const DaysPerWeek = 7

// WeekStart returns the Monday of date's ISO week at midnight.
func WeekStart(date time.Time) time.Time {
	d := model.DateOf(date)
	return d.AddDate(0, 0, -int(model.WeekdayOf(d)))
}

// ShiftWeek moves a week by n weeks; negative n goes back.
func ShiftWeek(weekStart time.Time, n int) time.Time {
	return WeekStart(weekStart).AddDate(0, 0, DaysPerWeek*n)
}

// WeekEnd is the Sunday closing the week.
func WeekEnd(weekStart time.Time) time.Time {
	return WeekStart(weekStart).AddDate(0, 0, DaysPerWeek-1)
}

// WeekdayColumn returns the 0..6 column of date in the week starting at
// weekStart, or false when the date falls outside it.
func WeekdayColumn(date, weekStart time.Time) (int, bool) {
	start := WeekStart(weekStart)
	d := model.DateOf(date)
	if d.Before(start) {
		return 0, false
	}
	col := int(d.Sub(start).Hours() / 24)
	if col >= DaysPerWeek {
		return 0, false
	}
	return col, true
}

type Day struct {
	Name       string `json:"name"`
	DayOfMonth string `json:"day_of_month"`
	Date       string `json:"date"`
	Column     int    `json:"column"`
	IsToday    bool   `json:"is_today"`
}

// Days builds the seven column headers of a week.
func Days(weekStart, today time.Time) []Day {
	start := WeekStart(weekStart)
	out := make([]Day, 0, DaysPerWeek)
	for i := 0; i < DaysPerWeek; i++ {
		d := start.AddDate(0, 0, i)
		out = append(out, Day{
			Name:       model.WeekdayOf(d).Short(),
			DayOfMonth: d.Format("02"),
			Date:       d.Format(model.DateLayout),
			Column:     i,
			IsToday:    !today.IsZero() && model.SameDate(d, today),
		})
	}
	return out
}

// RangeLabel renders a week as "January 02 - January 08, 2006".
func RangeLabel(weekStart time.Time) string {
	start := WeekStart(weekStart)
	return fmt.Sprintf("%s - %s", start.Format("January 02"), WeekEnd(start).Format("January 02, 2006"))
}
