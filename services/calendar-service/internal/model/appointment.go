package model

import (
	"fmt"
	"time"
)

// AppointmentRecord is the backend's wire form of an appointment. Times are
// "HH:MM" or "HH:MM:SS" strings and are parsed per record.
type AppointmentRecord struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Detail      string `json:"detail"`
	Approved    bool   `json:"approved"`
	Patient     int64  `json:"patient"`
	Dentist     int64  `json:"dentist"`
	PatientName string `json:"patient_name"`
	DentistName string `json:"dentist_name"`
}

type Appointment struct {
	ID          int64
	DentistID   int64
	PatientID   int64
	Date        time.Time
	Start       TimeOfDay
	End         TimeOfDay
	Detail      string
	Approved    bool
	PatientName string
	DentistName string
}

func (r AppointmentRecord) Parse() (Appointment, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return Appointment{}, err
	}
	start, err := ParseTimeOfDay(r.StartTime)
	if err != nil {
		return Appointment{}, fmt.Errorf("start_time: %w", err)
	}
	end, err := ParseTimeOfDay(r.EndTime)
	if err != nil {
		return Appointment{}, fmt.Errorf("end_time: %w", err)
	}
	if start >= end {
		return Appointment{}, fmt.Errorf("%w: %s-%s", ErrInvalidRange, start, end)
	}
	return Appointment{
		ID:          r.ID,
		DentistID:   r.Dentist,
		PatientID:   r.Patient,
		Date:        date,
		Start:       start,
		End:         end,
		Detail:      r.Detail,
		Approved:    r.Approved,
		PatientName: r.PatientName,
		DentistName: r.DentistName,
	}, nil
}

// ParseAppointments parses every record, skipping the malformed ones.
func ParseAppointments(records []AppointmentRecord) ([]Appointment, []Rejection) {
	out := make([]Appointment, 0, len(records))
	var rejected []Rejection
	for _, rec := range records {
		a, err := rec.Parse()
		if err != nil {
			rejected = append(rejected, Reject(rec.ID, err))
			continue
		}
		out = append(out, a)
	}
	return out, rejected
}
