package source

import (
	"context"
	"errors"
	"time"

	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/model"
)

var ErrNotFound = errors.New("not found")

// Source reads a dentist's snapshot from wherever the clinic keeps it.
// Implementations never validate beyond parsing; the calculators skip
// records they cannot use.
type Source interface {
	Schedule(ctx context.Context, dentistID int64) ([]model.ScheduleRecord, error)
	Appointments(ctx context.Context, dentistID int64, from, to time.Time) ([]model.AppointmentRecord, error)
}

type tokenKey struct{}

// WithToken carries the caller's bearer token to sources that forward it.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

func TokenFrom(ctx context.Context) string {
	v, _ := ctx.Value(tokenKey{}).(string)
	return v
}

// InRange reports whether a record's date lies within [from, to], both
// inclusive. Records with unparseable dates are kept so callers can reject
// them explicitly.
func InRange(rec model.AppointmentRecord, from, to time.Time) bool {
	d, err := model.ParseDate(rec.Date)
	if err != nil {
		return true
	}
	return !d.Before(model.DateOf(from)) && !d.After(model.DateOf(to))
}
