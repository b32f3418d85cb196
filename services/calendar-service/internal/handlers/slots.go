package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/dentalcare/libs/httpx"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/availability"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/model"
)

type slotsResponse struct {
	DentistID int64               `json:"dentist_id,omitempty"`
	Date      string              `json:"date"`
	Weekday   model.Weekday       `json:"weekday"`
	Reason    availability.Reason `json:"reason"`
	Message   string              `json:"message,omitempty"`
	Slots     []availability.Slot `json:"slots"`
	Skipped   []model.Rejection   `json:"skipped"`
}

func newSlotsResponse(dentistID int64, res availability.Result) slotsResponse {
	return slotsResponse{
		DentistID: dentistID,
		Date:      res.Date.Format(model.DateLayout),
		Weekday:   res.Weekday,
		Reason:    res.Reason,
		Message:   res.Message(),
		Slots:     res.Slots,
		Skipped:   nonNil(res.Rejected),
	}
}

// PublicSlots answers GET /api/v1/public/slots?dentist_id=&date=. Slots that
// already started are left out unless include_past=true.
func (h *CalendarHandler) PublicSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	dentistID, status, err := h.resolveDentist(r)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	if strings.TrimSpace(r.URL.Query().Get("date")) == "" {
		http.Error(w, "date is required", http.StatusBadRequest)
		return
	}
	date, err := h.parseDate(r, "date")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := requestContext(r)
	schedRecs, err := h.fetchSchedule(ctx, dentistID)
	if err != nil {
		h.writeSourceError(w, r, err)
		return
	}
	apptRecs, err := h.fetchAppointments(ctx, dentistID, date, date)
	if err != nil {
		h.writeSourceError(w, r, err)
		return
	}

	schedule, rejected := model.ParseSchedule(schedRecs)
	appts, apptRejected := model.ParseAppointments(apptRecs)
	rejected = append(rejected, apptRejected...)

	req := availability.Request{
		DentistID:    dentistID,
		Date:         date,
		Schedule:     schedule,
		Appointments: appts,
	}
	if r.URL.Query().Get("include_past") != "true" {
		req.Now = h.localNow()
	}
	res := availability.Compute(req)
	res.Rejected = append(rejected, res.Rejected...)

	h.reportRejected(r.Context(), "slots", res.Rejected)
	h.metrics.ObserveComputation("slots", string(res.Reason))
	httpx.WriteJSON(w, http.StatusOK, newSlotsResponse(dentistID, res))
}

type computeSlotsRequest struct {
	DentistID    int64                     `json:"dentist_id"`
	Date         string                    `json:"date"`
	Now          string                    `json:"now"`
	Schedule     []model.ScheduleRecord    `json:"schedule"`
	Appointments []model.AppointmentRecord `json:"appointments"`
}

// ComputeSlots answers POST /api/v1/slots/compute from a posted snapshot.
func (h *CalendarHandler) ComputeSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body computeSlotsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	date, err := model.ParseDate(body.Date)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	schedule, rejected := model.ParseSchedule(body.Schedule)
	appts, apptRejected := model.ParseAppointments(body.Appointments)
	rejected = append(rejected, apptRejected...)

	req := availability.Request{
		DentistID:    body.DentistID,
		Date:         date,
		Schedule:     schedule,
		Appointments: appts,
	}
	if strings.TrimSpace(body.Now) != "" {
		now, err := time.Parse(time.RFC3339, body.Now)
		if err != nil {
			http.Error(w, "invalid now", http.StatusBadRequest)
			return
		}
		req.Now = now.In(h.loc)
	}
	res := availability.Compute(req)
	res.Rejected = append(rejected, res.Rejected...)

	h.reportRejected(r.Context(), "slots", res.Rejected)
	h.metrics.ObserveComputation("slots", string(res.Reason))
	httpx.WriteJSON(w, http.StatusOK, newSlotsResponse(body.DentistID, res))
}
