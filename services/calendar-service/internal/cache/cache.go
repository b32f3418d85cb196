package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/model"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/source"
)

const DefaultTTL = 60 * time.Second

type Options struct {
	TTL    time.Duration
	Prefix string
	Logger *slog.Logger
	// Observe is called on every lookup with kind "schedule" or
	// "appointments".
	Observe func(kind string, hit bool)
}

// Source is a read-through Redis cache in front of another Source. Entries
// are namespaced by a per-dentist generation so Invalidate drops every
// cached range with a single INCR. Redis failures fall through to the
// wrapped source.
type Source struct {
	next    source.Source
	rdb     redis.UniversalClient
	ttl     time.Duration
	prefix  string
	logger  *slog.Logger
	observe func(string, bool)
}

func New(next source.Source, rdb redis.UniversalClient, opts Options) *Source {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	opts.Prefix = strings.TrimSpace(opts.Prefix)
	if opts.Prefix == "" {
		opts.Prefix = "calendar"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Source{
		next:    next,
		rdb:     rdb,
		ttl:     opts.TTL,
		prefix:  opts.Prefix,
		logger:  opts.Logger,
		observe: opts.Observe,
	}
}

func (s *Source) Schedule(ctx context.Context, dentistID int64) ([]model.ScheduleRecord, error) {
	var out []model.ScheduleRecord
	key := func(gen int64) string {
		return fmt.Sprintf("%s:%d:g%d:schedule", s.prefix, dentistID, gen)
	}
	err := s.readThrough(ctx, "schedule", dentistID, key, &out, func() (any, error) {
		recs, err := s.next.Schedule(ctx, dentistID)
		out = recs
		return recs, err
	})
	return out, err
}

func (s *Source) Appointments(ctx context.Context, dentistID int64, from, to time.Time) ([]model.AppointmentRecord, error) {
	var out []model.AppointmentRecord
	key := func(gen int64) string {
		return fmt.Sprintf("%s:%d:g%d:appointments:%s:%s", s.prefix, dentistID, gen,
			from.Format(model.DateLayout), to.Format(model.DateLayout))
	}
	err := s.readThrough(ctx, "appointments", dentistID, key, &out, func() (any, error) {
		recs, err := s.next.Appointments(ctx, dentistID, from, to)
		out = recs
		return recs, err
	})
	return out, err
}

// Invalidate drops every cached entry of a dentist.
func (s *Source) Invalidate(ctx context.Context, dentistID int64) error {
	return s.rdb.Incr(ctx, s.generationKey(dentistID)).Err()
}

func (s *Source) generationKey(dentistID int64) string {
	return fmt.Sprintf("%s:%d:gen", s.prefix, dentistID)
}

func (s *Source) generation(ctx context.Context, dentistID int64) (int64, error) {
	gen, err := s.rdb.Get(ctx, s.generationKey(dentistID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (s *Source) readThrough(ctx context.Context, kind string, dentistID int64, key func(int64) string, dst any, load func() (any, error)) error {
	gen, err := s.generation(ctx, dentistID)
	if err != nil {
		s.logger.Warn("cache generation lookup failed", "dentist_id", dentistID, "err", err)
		_, err := load()
		return err
	}
	k := key(gen)

	raw, err := s.rdb.Get(ctx, k).Bytes()
	switch {
	case err == nil:
		if jerr := json.Unmarshal(raw, dst); jerr == nil {
			s.record(kind, true)
			return nil
		}
		s.logger.Warn("cache entry corrupt", "key", k)
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("cache get failed", "key", k, "err", err)
	}
	s.record(kind, false)

	v, err := load()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, k, payload, s.ttl).Err(); err != nil {
		s.logger.Warn("cache set failed", "key", k, "err", err)
	}
	return nil
}

func (s *Source) record(kind string, hit bool) {
	if s.observe != nil {
		s.observe(kind, hit)
	}
}
