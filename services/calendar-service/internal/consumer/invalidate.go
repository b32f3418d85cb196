package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/segmentio/kafka-go"
)

// Invalidator drops cached snapshots of one dentist.
type Invalidator interface {
	Invalidate(ctx context.Context, dentistID int64) error
}

// ChangeEvent is the payload of appointment and schedule change events.
// Only the dentist matters; the date is logged for tracing purposes.
type ChangeEvent struct {
	DentistID flexibleID `json:"dentist_id"`
	Dentist   flexibleID `json:"dentist"`
	Date      string     `json:"date,omitempty"`
}

func (e ChangeEvent) dentist() int64 {
	if e.DentistID != 0 {
		return int64(e.DentistID)
	}
	return int64(e.Dentist)
}

// InvalidateHandler invalidates the dentist named by each change event.
// Malformed payloads are logged and acknowledged so they do not block the
// partition.
func InvalidateHandler(logger *slog.Logger, inv Invalidator) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var evt ChangeEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			logger.Error("invalid change event", "err", err, "topic", msg.Topic)
			return nil
		}
		dentistID := evt.dentist()
		if dentistID <= 0 {
			logger.Error("change event without dentist", "topic", msg.Topic)
			return nil
		}
		if err := inv.Invalidate(ctx, dentistID); err != nil {
			return err
		}
		logger.Debug("calendar cache invalidated", "dentist_id", dentistID, "date", evt.Date, "topic", msg.Topic)
		return nil
	}
}

// flexibleID accepts 7 or "7".
type flexibleID int64

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexibleID(n)
	return nil
}
