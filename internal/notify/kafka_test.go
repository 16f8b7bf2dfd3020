package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/napwatch/internal/config"
	"github.com/IshaanNene/napwatch/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestNotifyPublishesRefreshEvent(t *testing.T) {
	w := &fakeWriter{}
	n := NewKafkaNotifierWithWriter(w, "nap.refreshed", testLogger)

	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	result := &types.RunResult{
		RunID:      "4f7c",
		Trigger:    types.TriggerSchedule,
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		LinksFound: 12,
		Records:    12,
	}
	require.NoError(t, n.Notify(context.Background(), result))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "4f7c", string(msg.Key))
	assert.Equal(t, result.FinishedAt, msg.Time)

	var event RefreshEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, "4f7c", event.RunID)
	assert.Equal(t, types.TriggerSchedule, event.Trigger)
	assert.Equal(t, 12, event.Records)

	require.NoError(t, n.Close())
	assert.True(t, w.closed)
}

func TestNotifyWriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	n := NewKafkaNotifierWithWriter(w, "nap.refreshed", testLogger)

	err := n.Notify(context.Background(), &types.RunResult{RunID: "x"})
	assert.ErrorContains(t, err, "leader not available")
}

func TestNewKafkaNotifierConfiguresWriter(t *testing.T) {
	cfg := config.DefaultConfig().Notify
	n := NewKafkaNotifier(cfg, testLogger)

	w, ok := n.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "nap.refreshed", w.Topic)
	assert.Equal(t, "kafka", n.Name())
}
