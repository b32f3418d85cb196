package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/model"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/source"
)

var ErrUnauthorized = errors.New("backend rejected credentials")

// Client reads schedules and appointments from the clinic REST backend.
// The caller's bearer token, when present in the context, is forwarded.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *Client) Schedule(ctx context.Context, dentistID int64) ([]model.ScheduleRecord, error) {
	var out []model.ScheduleRecord
	path := fmt.Sprintf("/api/dentists/%d/schedule/", dentistID)
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, fmt.Errorf("fetch schedule: %w", err)
	}
	return out, nil
}

func (c *Client) Appointments(ctx context.Context, dentistID int64, from, to time.Time) ([]model.AppointmentRecord, error) {
	q := url.Values{}
	q.Set("dentist", strconv.FormatInt(dentistID, 10))
	q.Set("start_date", from.Format(model.DateLayout))
	q.Set("end_date", to.Format(model.DateLayout))

	var raw []model.AppointmentRecord
	if err := c.get(ctx, "/api/appointments/", q, &raw); err != nil {
		return nil, fmt.Errorf("fetch appointments: %w", err)
	}
	// The backend scopes by caller, not by the query, so filter here too.
	out := make([]model.AppointmentRecord, 0, len(raw))
	for _, rec := range raw {
		if rec.Dentist != 0 && rec.Dentist != dentistID {
			continue
		}
		if !source.InRange(rec, from, to) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dst any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if token := source.TokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return source.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
