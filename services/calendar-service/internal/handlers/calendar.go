package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/md-rashed-zaman/dentalcare/libs/auth"
	"github.com/md-rashed-zaman/dentalcare/libs/httpx"
	otelx "github.com/md-rashed-zaman/dentalcare/libs/otel"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/layout"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/metrics"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/model"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/source"
)

type CalendarHandler struct {
	source    source.Source
	logger    *slog.Logger
	metrics   *metrics.CalendarMetrics
	grid      layout.Grid
	loc       *time.Location
	jwtSecret string
	now       func() time.Time
}

type Options struct {
	Grid layout.Grid
	// Location is the clinic's time zone, used for "today" and "now".
	Location *time.Location
	// JWTSecret enables HS256 verification of bearer tokens. When empty,
	// claims are read unverified and the gateway is trusted.
	JWTSecret string
	Metrics   *metrics.CalendarMetrics
	Now       func() time.Time
}

func NewCalendarHandler(src source.Source, logger *slog.Logger, opts Options) *CalendarHandler {
	if opts.Grid == (layout.Grid{}) {
		opts.Grid = layout.DefaultGrid()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &CalendarHandler{
		source:    src,
		logger:    logger,
		metrics:   opts.Metrics,
		grid:      opts.Grid,
		loc:       opts.Location,
		jwtSecret: opts.JWTSecret,
		now:       opts.Now,
	}
}

func (h *CalendarHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/public/slots", h.PublicSlots)
	mux.HandleFunc("/api/v1/slots/compute", h.ComputeSlots)
	mux.HandleFunc("/api/v1/calendar/week", h.Week)
	mux.HandleFunc("/api/v1/calendar/layout", h.Layout)
	mux.HandleFunc("/api/v1/calendar/colors", h.Colors)
	mux.HandleFunc("/api/v1/calendar/now", h.Now)
}

func (h *CalendarHandler) localNow() time.Time {
	return h.now().In(h.loc)
}

// requestContext forwards the caller's token to sources that need it.
func requestContext(r *http.Request) context.Context {
	return source.WithToken(r.Context(), auth.BearerToken(r))
}

func (h *CalendarHandler) claims(r *http.Request) (*auth.Claims, error) {
	token := auth.BearerToken(r)
	if token == "" {
		return nil, nil
	}
	if h.jwtSecret != "" {
		return auth.ParseAndVerifyHS256(token, h.jwtSecret)
	}
	return auth.ParseJWTNoVerify(token)
}

var errMissingDentist = errors.New("dentist_id is required")

// resolveDentist reads dentist_id from the query, defaulting to the caller
// when the caller is a dentist.
func (h *CalendarHandler) resolveDentist(r *http.Request) (int64, int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("dentist_id"))
	claims, err := h.claims(r)
	if err != nil {
		return 0, http.StatusUnauthorized, errors.New("invalid token")
	}
	if raw == "" && claims.IsDentist() {
		raw = claims.UserID.String()
	}
	if raw == "" {
		return 0, http.StatusBadRequest, errMissingDentist
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, http.StatusBadRequest, errors.New("invalid dentist_id")
	}
	return id, 0, nil
}

func (h *CalendarHandler) fetchSchedule(ctx context.Context, dentistID int64) ([]model.ScheduleRecord, error) {
	ctx, span := otelx.Tracer("calendar").Start(ctx, "calendar.fetch_schedule")
	defer span.End()
	span.SetAttributes(attribute.Int64("dentist.id", dentistID))

	started := time.Now()
	recs, err := h.source.Schedule(ctx, dentistID)
	h.metrics.ObserveFetch("schedule", time.Since(started).Seconds())
	if err != nil {
		span.RecordError(err)
	}
	return recs, err
}

func (h *CalendarHandler) fetchAppointments(ctx context.Context, dentistID int64, from, to time.Time) ([]model.AppointmentRecord, error) {
	ctx, span := otelx.Tracer("calendar").Start(ctx, "calendar.fetch_appointments")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("dentist.id", dentistID),
		attribute.String("range.from", from.Format(model.DateLayout)),
		attribute.String("range.to", to.Format(model.DateLayout)),
	)

	started := time.Now()
	recs, err := h.source.Appointments(ctx, dentistID, from, to)
	h.metrics.ObserveFetch("appointments", time.Since(started).Seconds())
	if err != nil {
		span.RecordError(err)
	}
	return recs, err
}

func (h *CalendarHandler) writeSourceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, source.ErrNotFound) {
		http.Error(w, "dentist not found", http.StatusNotFound)
		return
	}
	h.logger.Error("snapshot fetch failed",
		"err", err,
		"path", r.URL.Path,
		"request_id", httpx.RequestIDFromContext(r.Context()),
		"trace_id", otelx.TraceID(r.Context()),
	)
	http.Error(w, "clinic backend unavailable", http.StatusBadGateway)
}

// reportRejected logs and counts skipped records.
func (h *CalendarHandler) reportRejected(ctx context.Context, kind string, rejected []model.Rejection) {
	for _, rej := range rejected {
		h.logger.Warn("record skipped",
			"kind", kind,
			"record_id", rej.ID,
			"day", rej.Day,
			"reason", rej.Reason,
			"detail", rej.Detail,
			"request_id", httpx.RequestIDFromContext(ctx),
		)
		h.metrics.ObserveRejected(rej.Reason, 1)
	}
}

func parseQueryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}

// parseDate reads a YYYY-MM-DD query value, defaulting to today.
func (h *CalendarHandler) parseDate(r *http.Request, key string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return model.DateOf(h.localNow()), nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return time.Time{}, errors.New("invalid " + key)
	}
	return d, nil
}

func nonNil(rejected []model.Rejection) []model.Rejection {
	if rejected == nil {
		return []model.Rejection{}
	}
	return rejected
}
