// Package journal mirrors what the agent observed (envelopes and applied
// status transitions) to a Kafka topic, so simulated runs can be replayed
// and analyzed offline. Everything here is best-effort: a journal failure
// never blocks or fails the agent.
package journal

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/ride-agent/internal/models"
)

type Recorder struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func New(brokers []string, topic string, logger *slog.Logger) *Recorder {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	return &Recorder{writer: w, logger: logger}
}

type record struct {
	Kind      string          `json:"kind"`
	UserID    string          `json:"userId,omitempty"`
	BookingID string          `json:"bookingId,omitempty"`
	From      string          `json:"from,omitempty"`
	To        string          `json:"to,omitempty"`
	Envelope  *models.Envelope `json:"envelope,omitempty"`
	At        time.Time       `json:"at"`
}

// Envelope records a realtime envelope as received, keyed by user.
func (r *Recorder) Envelope(userID string, env models.Envelope) {
	r.publish(userID, record{Kind: "envelope", UserID: userID, Envelope: &env, At: time.Now()})
}

// Transition records an applied booking status change, keyed by booking.
func (r *Recorder) Transition(bookingID string, from, to models.BookingStatus) {
	r.publish(bookingID, record{Kind: "transition", BookingID: bookingID, From: string(from), To: string(to), At: time.Now()})
}

func (r *Recorder) publish(key string, rec record) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := json.Marshal(rec)
	if err != nil {
		r.logger.Warn("journal encode failed", "error", err)
		return
	}
	if err := r.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b}); err != nil {
		r.logger.Warn("journal publish failed", "error", err)
	}
}

func (r *Recorder) Close() error {
	if r.writer == nil {
		return nil
	}
	return r.writer.Close()
}
