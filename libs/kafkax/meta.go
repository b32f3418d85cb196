package kafkax

import (
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventID   = "event_id"
	HeaderEventType = "event_type"
)

// EventMeta is the metadata the clinic backend stamps on change events.
type EventMeta struct {
	EventID   string
	EventType string
}

// ExtractEventMeta falls back to the message key and topic when the
// producer did not set headers. The fallback id includes partition and
// offset so unkeyed messages never collide.
func ExtractEventMeta(msg kafka.Message) EventMeta {
	eventID := HeaderValue(msg.Headers, HeaderEventID)
	eventType := HeaderValue(msg.Headers, HeaderEventType)
	if eventID == "" && len(msg.Key) > 0 {
		eventID = string(msg.Key)
	}
	if eventID == "" {
		eventID = msg.Topic + "/" + strconv.Itoa(msg.Partition) + "/" + strconv.FormatInt(msg.Offset, 10)
	}
	if eventType == "" {
		eventType = msg.Topic
	}
	return EventMeta{EventID: eventID, EventType: eventType}
}

func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// SplitBrokers splits a comma separated list, dropping blanks. It is also
// used for topic lists.
func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

type ReaderConfig struct {
	Brokers string
	GroupID string
	Topic   string
	// MaxWait bounds how long a fetch blocks waiting for new data.
	MaxWait time.Duration
}

func NewReader(cfg ReaderConfig) *kafka.Reader {
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = time.Second
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  SplitBrokers(cfg.Brokers),
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  cfg.MaxWait,
	})
}
