package model

import "errors"

var (
	ErrMalformedTime  = errors.New("malformed time value")
	ErrMalformedDate  = errors.New("malformed date value")
	ErrInvalidRange   = errors.New("start must be before end")
	ErrUnknownWeekday = errors.New("unknown weekday")
	ErrDuplicateDay   = errors.New("duplicate schedule entry for weekday")
	ErrWindowTooShort = errors.New("working window shorter than the contractual minimum")
)

// Rejection reasons reported back to callers for skipped records.
const (
	ReasonMalformedTime  = "malformed_time"
	ReasonMalformedDate  = "malformed_date"
	ReasonInvalidRange   = "invalid_range"
	ReasonUnknownWeekday = "unknown_weekday"
	ReasonDuplicateDay   = "duplicate_day"
)

// Rejection describes one input record that was skipped. Batches are never
// aborted because of a single bad record.
type Rejection struct {
	ID     int64  `json:"id,omitempty"`
	Day    string `json:"day,omitempty"`
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}

func Reject(id int64, err error) Rejection {
	return Rejection{ID: id, Reason: ReasonOf(err), Detail: err.Error()}
}

func ReasonOf(err error) string {
	switch {
	case errors.Is(err, ErrMalformedTime):
		return ReasonMalformedTime
	case errors.Is(err, ErrMalformedDate):
		return ReasonMalformedDate
	case errors.Is(err, ErrInvalidRange):
		return ReasonInvalidRange
	case errors.Is(err, ErrUnknownWeekday):
		return ReasonUnknownWeekday
	case errors.Is(err, ErrDuplicateDay):
		return ReasonDuplicateDay
	}
	return "invalid"
}
