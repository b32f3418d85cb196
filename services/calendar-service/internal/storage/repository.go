package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/dentalcare/libs/db"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/model"
	"github.com/md-rashed-zaman/dentalcare/services/calendar-service/internal/source"
)

// Repository reads the clinic tables directly. Times and dates are rendered
// as text by Postgres so they go through the same parsing as REST payloads.
type Repository struct {
	pool db.Querier
}

func NewRepository(pool db.Querier) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Schedule(ctx context.Context, dentistID int64) ([]model.ScheduleRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT dentist_id, day,
			to_char(start_time, 'HH24:MI:SS'),
			to_char(end_time, 'HH24:MI:SS')
		FROM api_workschedule
		WHERE dentist_id = $1
		ORDER BY id
	`, dentistID)
	if err != nil {
		return nil, fmt.Errorf("query schedule: %w", err)
	}
	defer rows.Close()

	var out []model.ScheduleRecord
	for rows.Next() {
		var rec model.ScheduleRecord
		var start, end string
		if err := rows.Scan(&rec.Dentist, &rec.Day, &start, &end); err != nil {
			return nil, err
		}
		rec.StartHour = model.HourValue(start)
		rec.EndHour = model.HourValue(end)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		exists, err := r.dentistExists(ctx, dentistID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, source.ErrNotFound
		}
	}
	return out, nil
}

func (r *Repository) Appointments(ctx context.Context, dentistID int64, from, to time.Time) ([]model.AppointmentRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, to_char(a.date, 'YYYY-MM-DD'),
			to_char(a.start_time, 'HH24:MI:SS'),
			to_char(a.end_time, 'HH24:MI:SS'),
			COALESCE(a.detail, ''), a.approved, a.patient_id, a.dentist_id,
			COALESCE(NULLIF(TRIM(pu.first_name || ' ' || pu.last_name), ''), pu.username, ''),
			COALESCE(NULLIF(TRIM(du.first_name || ' ' || du.last_name), ''), du.username, '')
		FROM api_appointment a
		LEFT JOIN api_user pu ON pu.id = a.patient_id
		LEFT JOIN api_user du ON du.id = a.dentist_id
		WHERE a.dentist_id = $1 AND a.date BETWEEN $2 AND $3
		ORDER BY a.date, a.start_time, a.id
	`, dentistID, model.DateOf(from), model.DateOf(to))
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	out := []model.AppointmentRecord{}
	for rows.Next() {
		var rec model.AppointmentRecord
		if err := rows.Scan(
			&rec.ID, &rec.Date, &rec.StartTime, &rec.EndTime,
			&rec.Detail, &rec.Approved, &rec.Patient, &rec.Dentist,
			&rec.PatientName, &rec.DentistName,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *Repository) dentistExists(ctx context.Context, dentistID int64) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM api_dentist WHERE user_id = $1`, dentistID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
