package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/dentalcare/libs/auth"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/metrics"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/model"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/source"
)

const testSecret = "test-secret"

// Monday 2026-01-05, 09:40 clinic time.
var fixedNow = time.Date(2026, 1, 5, 9, 40, 0, 0, time.UTC)

func newTestMux(t *testing.T, src source.Source) *http.ServeMux {
	t.Helper()
	h := NewCalendarHandler(src, slog.New(slog.NewTextHandler(io.Discard, nil)), Options{
		JWTSecret: testSecret,
		Metrics:   metrics.NewCalendarMetrics(prometheus.NewRegistry()),
		Now:       func() time.Time { return fixedNow },
	})
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func clinic() *source.Memory {
	mem := source.NewMemory()
	mem.PutSchedule(7,
		model.ScheduleRecord{Dentist: 7, Day: "Monday", StartHour: "9", EndHour: "17"},
		model.ScheduleRecord{Dentist: 7, Day: "Wednesday", StartHour: "09:00:00", EndHour: "17:00:00"},
		model.ScheduleRecord{Dentist: 7, Day: "Friday", StartHour: "9", EndHour: "17"},
	)
	mem.AddAppointments(7,
		model.AppointmentRecord{ID: 1, Date: "2026-01-05", StartTime: "10:00:00", EndTime: "11:00:00", Detail: "Root canal", Dentist: 7, PatientName: "Ada"},
		model.AppointmentRecord{ID: 2, Date: "2026-01-07", StartTime: "09:30", EndTime: "10:30", Detail: "Consultation", Dentist: 7},
		model.AppointmentRecord{ID: 3, Date: "2026-01-05", StartTime: "9h", EndTime: "10:00", Dentist: 7},
	)
	return mem
}

func do(t *testing.T, mux *http.ServeMux, method, target string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type slotsBody struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
	Slots   []struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"slots"`
	Skipped []model.Rejection `json:"skipped"`
}

func TestPublicSlots(t *testing.T) {
	mux := newTestMux(t, clinic())

	rec := do(t, mux, http.MethodGet, "/api/v1/public/slots?dentist_id=7&date=2026-01-05", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[slotsBody](t, rec)
	require.Equal(t, "Monday", body.Weekday)
	require.Equal(t, "available", body.Reason)
	require.Len(t, body.Slots, 12)
	require.Equal(t, "11:00", body.Slots[0].Start)
	require.Equal(t, "11:30", body.Slots[0].End)
	require.Len(t, body.Skipped, 1)
	require.Equal(t, int64(3), body.Skipped[0].ID)
	require.Equal(t, model.ReasonMalformedTime, body.Skipped[0].Reason)

	rec = do(t, mux, http.MethodGet, "/api/v1/public/slots?dentist_id=7&date=2026-01-05&include_past=true", nil, "")
	require.Len(t, decode[slotsBody](t, rec).Slots, 14)

	rec = do(t, mux, http.MethodGet, "/api/v1/public/slots?dentist_id=7&date=2026-01-06", nil, "")
	body = decode[slotsBody](t, rec)
	require.Equal(t, "not_scheduled", body.Reason)
	require.NotNil(t, body.Slots)
	require.Empty(t, body.Slots)
	require.Equal(t, "dentist is not scheduled on Tuesday", body.Message)

	rec = do(t, mux, http.MethodGet, "/api/v1/public/slots?dentist_id=7&date=2026-01-07", nil, "")
	body = decode[slotsBody](t, rec)
	require.Len(t, body.Slots, 14)
	require.Equal(t, "09:00", body.Slots[0].Start)
	require.Equal(t, "10:30", body.Slots[1].Start)
}

func TestPublicSlotsErrors(t *testing.T) {
	mux := newTestMux(t, clinic())

	cases := []struct {
		target string
		status int
	}{
		{"/api/v1/public/slots?date=2026-01-05", http.StatusBadRequest},
		{"/api/v1/public/slots?dentist_id=abc&date=2026-01-05", http.StatusBadRequest},
		{"/api/v1/public/slots?dentist_id=7", http.StatusBadRequest},
		{"/api/v1/public/slots?dentist_id=7&date=05-01-2026", http.StatusBadRequest},
		{"/api/v1/public/slots?dentist_id=8&date=2026-01-05", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := do(t, mux, http.MethodGet, tc.target, nil, "")
		require.Equal(t, tc.status, rec.Code, tc.target)
	}

	rec := do(t, mux, http.MethodPost, "/api/v1/public/slots?dentist_id=7&date=2026-01-05", nil, "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

type failingSource struct{}

func (failingSource) Schedule(context.Context, int64) ([]model.ScheduleRecord, error) {
	return nil, errors.New("connection refused")
}

func (failingSource) Appointments(context.Context, int64, time.Time, time.Time) ([]model.AppointmentRecord, error) {
	return nil, errors.New("connection refused")
}

func TestUpstreamFailureIsBadGateway(t *testing.T) {
	mux := newTestMux(t, failingSource{})
	rec := do(t, mux, http.MethodGet, "/api/v1/public/slots?dentist_id=7&date=2026-01-05", nil, "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	rec = do(t, mux, http.MethodGet, "/api/v1/calendar/week?dentist_id=7", nil, "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestDentistTokenDefaultsDentistID(t *testing.T) {
	mux := newTestMux(t, clinic())

	token, err := auth.SignHS256(auth.Claims{UserID: "7", Role: auth.RoleDentist, Exp: time.Now().Add(time.Hour).Unix()}, testSecret)
	require.NoError(t, err)
	rec := do(t, mux, http.MethodGet, "/api/v1/calendar/week?date=2026-01-07", nil, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	patient, err := auth.SignHS256(auth.Claims{UserID: "3", Role: auth.RolePatient, Exp: time.Now().Add(time.Hour).Unix()}, testSecret)
	require.NoError(t, err)
	rec = do(t, mux, http.MethodGet, "/api/v1/calendar/week?date=2026-01-07", nil, patient)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	forged, err := auth.SignHS256(auth.Claims{UserID: "7", Role: auth.RoleDentist}, "other-secret")
	require.NoError(t, err)
	rec = do(t, mux, http.MethodGet, "/api/v1/calendar/week?date=2026-01-07", nil, forged)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

type weekBody struct {
	WeekStart  string   `json:"week_start"`
	WeekEnd    string   `json:"week_end"`
	RangeLabel string   `json:"range_label"`
	PrevWeek   string   `json:"prev_week"`
	NextWeek   string   `json:"next_week"`
	Hours      []string `json:"hours"`
	Days       []struct {
		Name    string `json:"name"`
		IsToday bool   `json:"is_today"`
	} `json:"days"`
	Appointments []struct {
		ID                int64   `json:"id"`
		PatientName       string  `json:"patient_name"`
		DayColumn         int     `json:"day_column"`
		Top               float64 `json:"top"`
		Height            float64 `json:"height"`
		Left              float64 `json:"left"`
		TreatmentCategory string  `json:"treatment_category"`
		Color             string  `json:"color"`
		ClassName         string  `json:"class_name"`
	} `json:"appointments"`
	Skipped []model.Rejection `json:"skipped"`
	Colors  []struct {
		Category string `json:"category"`
	} `json:"colors"`
	NowTop     *float64 `json:"now_top"`
	GridHeight float64  `json:"grid_height"`
}

func TestWeek(t *testing.T) {
	mux := newTestMux(t, clinic())

	rec := do(t, mux, http.MethodGet, "/api/v1/calendar/week?dentist_id=7&date=2026-01-07", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[weekBody](t, rec)

	require.Equal(t, "2026-01-05", body.WeekStart)
	require.Equal(t, "2026-01-11", body.WeekEnd)
	require.Equal(t, "January 05 - January 11, 2026", body.RangeLabel)
	require.Equal(t, "2025-12-29", body.PrevWeek)
	require.Equal(t, "2026-01-12", body.NextWeek)
	require.Len(t, body.Hours, 10)
	require.InDelta(t, 480.0, body.GridHeight, 1e-9)
	require.Len(t, body.Days, 7)
	require.True(t, body.Days[0].IsToday)
	require.Len(t, body.Colors, 8)

	require.Len(t, body.Appointments, 2)
	mon := body.Appointments[0]
	require.Equal(t, int64(1), mon.ID)
	require.Equal(t, "Ada", mon.PatientName)
	require.Equal(t, 0, mon.DayColumn)
	require.InDelta(t, 60.0, mon.Top, 1e-9)
	require.InDelta(t, 60.0, mon.Height, 1e-9)
	require.Equal(t, "Root Canal", mon.TreatmentCategory)
	require.Equal(t, "root-canal", mon.ClassName)

	wed := body.Appointments[1]
	require.InDelta(t, 2.0/7.0, wed.Left, 1e-9)
	require.InDelta(t, 30.0, wed.Top, 1e-9)
	require.Equal(t, "#F29D63", wed.Color)

	require.Len(t, body.Skipped, 1)
	require.NotNil(t, body.NowTop)
	require.InDelta(t, 40.0, *body.NowTop, 1e-9)

	rec = do(t, mux, http.MethodGet, "/api/v1/calendar/week?dentist_id=7&date=2026-01-14&pixels_per_hour=120", nil, "")
	body = decode[weekBody](t, rec)
	require.InDelta(t, 960.0, body.GridHeight, 1e-9)
	require.Empty(t, body.Appointments)
	require.Nil(t, body.NowTop)

	rec = do(t, mux, http.MethodGet, "/api/v1/calendar/week?dentist_id=7&start_hour=18&end_hour=9", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLayoutFromPostedRecords(t *testing.T) {
	mux := newTestMux(t, clinic())

	rec := do(t, mux, http.MethodPost, "/api/v1/calendar/layout", map[string]any{
		"week_start":      "2026-01-08",
		"pixels_per_hour": 100,
		"appointments": []model.AppointmentRecord{
			{ID: 10, Date: "2026-01-11", StartTime: "14:00", EndTime: "15:30", Detail: "Teeth bleaching"},
			{ID: 11, Date: "2026-01-11", StartTime: "15:00", EndTime: "14:00"},
		},
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[weekBody](t, rec)
	require.Equal(t, "2026-01-05", body.WeekStart)
	require.Len(t, body.Appointments, 1)
	require.Equal(t, 6, body.Appointments[0].DayColumn)
	require.InDelta(t, 500.0, body.Appointments[0].Top, 1e-9)
	require.InDelta(t, 150.0, body.Appointments[0].Height, 1e-9)
	require.Equal(t, "Bleaching", body.Appointments[0].TreatmentCategory)
	require.Len(t, body.Skipped, 1)
	require.Equal(t, model.ReasonInvalidRange, body.Skipped[0].Reason)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/calendar/layout", bytes.NewReader([]byte("{")))
	bad := httptest.NewRecorder()
	mux.ServeHTTP(bad, req)
	require.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestComputeSlotsFromSnapshot(t *testing.T) {
	mux := newTestMux(t, clinic())

	rec := do(t, mux, http.MethodPost, "/api/v1/slots/compute", map[string]any{
		"date": "2026-01-05",
		"schedule": []map[string]any{
			{"day": "Monday", "start_hour": 9, "end_hour": "17"},
			{"day": "Someday", "start_hour": "9", "end_hour": "17"},
		},
		"appointments": []model.AppointmentRecord{
			{ID: 1, Date: "2026-01-05", StartTime: "09:00", EndTime: "10:00"},
		},
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[slotsBody](t, rec)
	require.Len(t, body.Slots, 14)
	require.Equal(t, "10:00", body.Slots[0].Start)
	require.Len(t, body.Skipped, 1)
	require.Equal(t, model.ReasonUnknownWeekday, body.Skipped[0].Reason)

	rec = do(t, mux, http.MethodPost, "/api/v1/slots/compute", map[string]any{
		"date":     "2026-01-05",
		"now":      "2026-01-05T16:45:00Z",
		"schedule": []map[string]any{{"day": "Monday", "start_hour": "9", "end_hour": "17"}},
	}, "")
	body = decode[slotsBody](t, rec)
	require.Equal(t, "fully_booked", body.Reason)

	rec = do(t, mux, http.MethodPost, "/api/v1/slots/compute", map[string]any{"date": "tomorrow"}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestColorsAndNow(t *testing.T) {
	mux := newTestMux(t, clinic())

	rec := do(t, mux, http.MethodGet, "/api/v1/calendar/colors", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	colors := decode[[]map[string]string](t, rec)
	require.Len(t, colors, 8)
	require.Equal(t, "Root Canal", colors[0]["category"])
	require.Equal(t, "#636AF2", colors[0]["color"])

	rec = do(t, mux, http.MethodGet, "/api/v1/calendar/now?start_hour=8&pixels_per_hour=60", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	now := decode[nowResponse](t, rec)
	require.Equal(t, "09:40", now.Time)
	require.InDelta(t, 100.0, now.Top, 1e-9)
}
