package source

import (
	"context"
	"sync"
	"time"

	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/model"
)

// Memory is an in-process Source used for posted snapshots and tests.
type Memory struct {
	mu           sync.RWMutex
	schedules    map[int64][]model.ScheduleRecord
	appointments map[int64][]model.AppointmentRecord
}

func NewMemory() *Memory {
	return &Memory{
		schedules:    map[int64][]model.ScheduleRecord{},
		appointments: map[int64][]model.AppointmentRecord{},
	}
}

func (m *Memory) PutSchedule(dentistID int64, records ...model.ScheduleRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[dentistID] = append([]model.ScheduleRecord(nil), records...)
}

func (m *Memory) AddAppointments(dentistID int64, records ...model.AppointmentRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appointments[dentistID] = append(m.appointments[dentistID], records...)
}

func (m *Memory) Schedule(_ context.Context, dentistID int64) ([]model.ScheduleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs, ok := m.schedules[dentistID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]model.ScheduleRecord(nil), recs...), nil
}

func (m *Memory) Appointments(_ context.Context, dentistID int64, from, to time.Time) ([]model.AppointmentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []model.AppointmentRecord{}
	for _, rec := range m.appointments[dentistID] {
		if InRange(rec, from, to) {
			out = append(out, rec)
		}
	}
	return out, nil
}
