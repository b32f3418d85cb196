package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/model"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/source"
)

type countingSource struct {
	*source.Memory
	scheduleCalls int
	apptCalls     int
}

func (c *countingSource) Schedule(ctx context.Context, id int64) ([]model.ScheduleRecord, error) {
	c.scheduleCalls++
	return c.Memory.Schedule(ctx, id)
}

func (c *countingSource) Appointments(ctx context.Context, id int64, from, to time.Time) ([]model.AppointmentRecord, error) {
	c.apptCalls++
	return c.Memory.Appointments(ctx, id, from, to)
}

func setup(t *testing.T) (*Source, *countingSource, *miniredis.Miniredis, map[string]int) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	mem := source.NewMemory()
	mem.PutSchedule(7, model.ScheduleRecord{Day: "Monday", StartHour: "9", EndHour: "17"})
	mem.AddAppointments(7, model.AppointmentRecord{ID: 1, Date: "2026-01-05", StartTime: "09:00", EndTime: "10:00"})
	next := &countingSource{Memory: mem}

	stats := map[string]int{}
	c := New(next, rdb, Options{TTL: time.Minute, Observe: func(kind string, hit bool) {
		if hit {
			stats[kind+":hit"]++
		} else {
			stats[kind+":miss"]++
		}
	}})
	return c, next, mr, stats
}

func TestCacheReadThrough(t *testing.T) {
	c, next, mr, stats := setup(t)
	ctx := context.Background()
	from := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 6)

	for i := 0; i < 3; i++ {
		sched, err := c.Schedule(ctx, 7)
		require.NoError(t, err)
		require.Len(t, sched, 1)
		require.Equal(t, model.HourValue("9"), sched[0].StartHour)

		appts, err := c.Appointments(ctx, 7, from, to)
		require.NoError(t, err)
		require.Len(t, appts, 1)
	}
	require.Equal(t, 1, next.scheduleCalls)
	require.Equal(t, 1, next.apptCalls)
	require.Equal(t, 2, stats["schedule:hit"])
	require.Equal(t, 1, stats["appointments:miss"])

	mr.FastForward(2 * time.Minute)
	_, err := c.Schedule(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 2, next.scheduleCalls, "expired entries reload")
}

func TestCacheInvalidate(t *testing.T) {
	c, next, _, _ := setup(t)
	ctx := context.Background()
	from := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	_, err := c.Appointments(ctx, 7, from, from.AddDate(0, 0, 6))
	require.NoError(t, err)

	next.AddAppointments(7, model.AppointmentRecord{ID: 2, Date: "2026-01-06", StartTime: "11:00", EndTime: "11:30"})
	stale, err := c.Appointments(ctx, 7, from, from.AddDate(0, 0, 6))
	require.NoError(t, err)
	require.Len(t, stale, 1)

	require.NoError(t, c.Invalidate(ctx, 7))
	fresh, err := c.Appointments(ctx, 7, from, from.AddDate(0, 0, 6))
	require.NoError(t, err)
	require.Len(t, fresh, 2)
	require.Equal(t, 2, next.apptCalls)
}

func TestCacheDoesNotStoreErrors(t *testing.T) {
	c, next, _, _ := setup(t)
	ctx := context.Background()

	_, err := c.Schedule(ctx, 99)
	require.True(t, errors.Is(err, source.ErrNotFound))
	_, err = c.Schedule(ctx, 99)
	require.True(t, errors.Is(err, source.ErrNotFound))
	require.Equal(t, 2, next.scheduleCalls)
}

func TestCacheFallsThroughWhenRedisDown(t *testing.T) {
	c, next, mr, _ := setup(t)
	mr.Close()

	sched, err := c.Schedule(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, sched, 1)
	require.Equal(t, 1, next.scheduleCalls)
}
