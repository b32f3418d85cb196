package layout

import (
	"errors"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/model"
)

const (
	DefaultStartHour     = 9
	DefaultEndHour       = 17
	DefaultPixelsPerHour = 60
)

var ErrInvalidGrid = errors.New("invalid calendar grid")

// Grid is the visible hour range of the week view.
type Grid struct {
	StartHour     int `json:"start_hour"`
	EndHour       int `json:"end_hour"`
	PixelsPerHour int `json:"pixels_per_hour"`
}

func DefaultGrid() Grid {
	return Grid{StartHour: DefaultStartHour, EndHour: DefaultEndHour, PixelsPerHour: DefaultPixelsPerHour}
}

func (g Grid) Validate() error {
	if g.StartHour < 0 || g.EndHour > 24 || g.StartHour >= g.EndHour {
		return fmt.Errorf("%w: hours %d-%d", ErrInvalidGrid, g.StartHour, g.EndHour)
	}
	if g.PixelsPerHour <= 0 {
		return fmt.Errorf("%w: pixels per hour %d", ErrInvalidGrid, g.PixelsPerHour)
	}
	return nil
}

// HourLabels lists one "H:00" row label from StartHour through the row
// after EndHour, so appointments ending at EndHour still have a row below.
func (g Grid) HourLabels() []string {
	last := g.EndHour + 1
	if last > 23 {
		last = 23
	}
	var out []string
	for h := g.StartHour; h <= last; h++ {
		out = append(out, fmt.Sprintf("%d:00", h))
	}
	return out
}

// Height is the pixel height of the whole visible range.
func (g Grid) Height() float64 {
	return float64((g.EndHour - g.StartHour) * g.PixelsPerHour)
}

// CurrentTimeOffset is the vertical position of the "now" marker. It is not
// clamped to the visible range. Seconds are dropped, so the marker moves in
// whole-minute steps.
func CurrentTimeOffset(now time.Time, startHour, pixelsPerHour int) float64 {
	return (model.ClockOf(now).DecimalHours() - float64(startHour)) * float64(pixelsPerHour)
}

// DecimalHours converts "HH:MM" or "HH:MM:SS" to fractional hours.
func DecimalHours(s string) (float64, error) {
	t, err := model.ParseTimeOfDay(s)
	if err != nil {
		return 0, err
	}
	return t.DecimalHours(), nil
}
