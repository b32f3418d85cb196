package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/dentalcare/libs/httpx"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/layout"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/model"
)

type weekResponse struct {
	DentistID    int64                          `json:"dentist_id,omitempty"`
	WeekStart    string                         `json:"week_start"`
	WeekEnd      string                         `json:"week_end"`
	RangeLabel   string                         `json:"range_label"`
	PrevWeek     string                         `json:"prev_week"`
	NextWeek     string                         `json:"next_week"`
	Grid         layout.Grid                    `json:"grid"`
	GridHeight   float64                        `json:"grid_height"`
	Days         []layout.Day                   `json:"days"`
	Hours        []string                       `json:"hours"`
	Appointments []layout.PositionedAppointment `json:"appointments"`
	Skipped      []model.Rejection              `json:"skipped"`
	Colors       []layout.Swatch                `json:"colors"`
	// NowTop is set only when today falls inside the displayed week.
	NowTop *float64 `json:"now_top"`
}

func (h *CalendarHandler) buildWeek(dentistID int64, grid layout.Grid, weekStart time.Time, records []model.AppointmentRecord) (weekResponse, error) {
	week, err := grid.Layout(records, weekStart)
	if err != nil {
		return weekResponse{}, err
	}
	now := h.localNow()
	resp := weekResponse{
		DentistID:    dentistID,
		WeekStart:    week.Start.Format(model.DateLayout),
		WeekEnd:      layout.WeekEnd(week.Start).Format(model.DateLayout),
		RangeLabel:   layout.RangeLabel(week.Start),
		PrevWeek:     layout.ShiftWeek(week.Start, -1).Format(model.DateLayout),
		NextWeek:     layout.ShiftWeek(week.Start, 1).Format(model.DateLayout),
		Grid:         grid,
		GridHeight:   grid.Height(),
		Days:         layout.Days(week.Start, now),
		Hours:        grid.HourLabels(),
		Appointments: week.Appointments,
		Skipped:      week.Skipped,
		Colors:       layout.Colors(),
	}
	if _, ok := layout.WeekdayColumn(now, week.Start); ok {
		top := layout.CurrentTimeOffset(now, grid.StartHour, grid.PixelsPerHour)
		resp.NowTop = &top
	}
	return resp, nil
}

func (h *CalendarHandler) gridFromQuery(r *http.Request) (layout.Grid, error) {
	g := h.grid
	var err error
	if g.StartHour, err = parseQueryInt(r, "start_hour", g.StartHour); err != nil {
		return g, err
	}
	if g.EndHour, err = parseQueryInt(r, "end_hour", g.EndHour); err != nil {
		return g, err
	}
	if g.PixelsPerHour, err = parseQueryInt(r, "pixels_per_hour", g.PixelsPerHour); err != nil {
		return g, err
	}
	return g, g.Validate()
}

// Week answers GET /api/v1/calendar/week for the week containing date.
func (h *CalendarHandler) Week(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	dentistID, status, err := h.resolveDentist(r)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	date, err := h.parseDate(r, "date")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	grid, err := h.gridFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := layout.WeekStart(date)
	records, err := h.fetchAppointments(requestContext(r), dentistID, start, layout.WeekEnd(start))
	if err != nil {
		h.writeSourceError(w, r, err)
		return
	}

	resp, err := h.buildWeek(dentistID, grid, start, records)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.reportRejected(r.Context(), "layout", resp.Skipped)
	h.metrics.ObserveComputation("layout", "ok")
	httpx.WriteJSON(w, http.StatusOK, resp)
}

type layoutRequest struct {
	WeekStart     string                    `json:"week_start"`
	StartHour     *int                      `json:"start_hour"`
	EndHour       *int                      `json:"end_hour"`
	PixelsPerHour *int                      `json:"pixels_per_hour"`
	Appointments  []model.AppointmentRecord `json:"appointments"`
}

// Layout answers POST /api/v1/calendar/layout for a posted record list.
func (h *CalendarHandler) Layout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body layoutRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	start := model.DateOf(h.localNow())
	if strings.TrimSpace(body.WeekStart) != "" {
		d, err := model.ParseDate(body.WeekStart)
		if err != nil {
			http.Error(w, "invalid week_start", http.StatusBadRequest)
			return
		}
		start = d
	}
	grid := h.grid
	if body.StartHour != nil {
		grid.StartHour = *body.StartHour
	}
	if body.EndHour != nil {
		grid.EndHour = *body.EndHour
	}
	if body.PixelsPerHour != nil {
		grid.PixelsPerHour = *body.PixelsPerHour
	}

	resp, err := h.buildWeek(0, grid, start, body.Appointments)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.reportRejected(r.Context(), "layout", resp.Skipped)
	h.metrics.ObserveComputation("layout", "ok")
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// Colors answers GET /api/v1/calendar/colors.
func (h *CalendarHandler) Colors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, layout.Colors())
}

type nowResponse struct {
	Time string  `json:"time"`
	Top  float64 `json:"top"`
}

// Now answers GET /api/v1/calendar/now with the current-time marker offset.
func (h *CalendarHandler) Now(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	grid, err := h.gridFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	now := h.localNow()
	httpx.WriteJSON(w, http.StatusOK, nowResponse{
		Time: model.ClockOf(now).String(),
		Top:  layout.CurrentTimeOffset(now, grid.StartHour, grid.PixelsPerHour),
	})
}
