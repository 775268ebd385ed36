package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/FlagWatch/FlagWatch/internal/flagstatus"
)

// statusEnvelope is the wire shape published per transition.
type statusEnvelope struct {
	Event          string                 `json:"event"`
	Status         string                 `json:"status"`
	Reason         string                 `json:"reason"`
	ProclamationID string                 `json:"proclamation_id,omitempty"`
	Record         flagstatus.FlagStatus  `json:"record"`
	Previous       *flagstatus.FlagStatus `json:"previous,omitempty"`
}

// KafkaNotifier publishes transition envelopes to a topic.
type KafkaNotifier struct {
	writer *kafka.Writer
}

// NewKafkaNotifier connects a synchronous writer to the given brokers.
// brokers is a comma separated bootstrap list.
func NewKafkaNotifier(brokers, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(strings.Split(brokers, ",")...),
			Topic:        topic,
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}
}

func (k *KafkaNotifier) Name() string { return "kafka" }

// Close flushes and tears down the writer.
func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}

func (k *KafkaNotifier) Notify(ctx context.Context, ev Event) error {
	env := statusEnvelope{
		Event:          "flag_status_changed",
		Status:         ev.Current.Status,
		Reason:         ev.Current.Reason,
		ProclamationID: ev.Current.ProclamationID,
		Record:         ev.Current,
		Previous:       ev.Previous,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	key := ev.Current.ProclamationID
	if key == "" {
		key = "status"
	}
	msg := kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: []kafka.Header{{Key: "event", Value: []byte(env.Event)}},
		Time:    time.Now(),
	}

	var writeErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
		}
		writeErr = k.writer.WriteMessages(ctx, msg)
		if writeErr == nil {
			return nil
		}
		if errors.Is(writeErr, kafka.NotLeaderForPartition) || errors.Is(writeErr, kafka.LeaderNotAvailable) {
			continue
		}
		break
	}
	return fmt.Errorf("write status event: %w", writeErr)
}
