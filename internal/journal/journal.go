// Package journal records what happened during a submission in an embedded,
// in-memory NATS JetStream stream. Every orchestrator transition and every
// outbound call becomes one event; History replays them in order.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/zerotrust/onboard/internal/logger"
)

const (
	streamName    = "onboard_journal"
	subjectPrefix = "onboard"
)

// Event kinds.
const (
	KindState = "state"
	KindSetup = "setup"
	KindLogin = "login"
)

// Event is one journal entry.
type Event struct {
	Seq       uint64    `json:"-"`
	Timestamp time.Time `json:"timestamp"`
	Session   string    `json:"session"`
	Kind      string    `json:"kind"`
	State     string    `json:"state,omitempty"`
	Status    int       `json:"status,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// String renders the event as a single transcript line.
func (e Event) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s", e.Timestamp.Format("15:04:05.000"), e.Kind)
	if e.State != "" {
		fmt.Fprintf(&b, " state=%s", e.State)
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, " status=%d", e.Status)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, " %s", e.Detail)
	}
	return b.String()
}

// SubjectForSession returns the wildcard subject of every event of a session.
func SubjectForSession(session string) string {
	return fmt.Sprintf("%s.%s.>", subjectPrefix, session)
}

// SubjectForEvent returns the subject one event kind is published on.
func SubjectForEvent(session, kind string) string {
	return fmt.Sprintf("%s.%s.%s", subjectPrefix, session, kind)
}

// Journal owns the embedded server, its connection and the stream.
type Journal struct {
	mu     sync.Mutex
	dir    string
	ns     *server.Server
	nc     *nats.Conn
	js     jetstream.JetStream
	stream jetstream.Stream
	closed bool
}

// Open starts the embedded server and creates the journal stream.
func Open(ctx context.Context) (*Journal, error) {
	dir, err := os.MkdirTemp("", "onboard-journal-")
	if err != nil {
		return nil, fmt.Errorf("creating journal dir: %w", err)
	}

	ns, err := startServer(dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("starting journal server: %w", err)
	}

	nc, js, err := connect(ns)
	if err != nil {
		_ = shutdown(nil, ns)
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("connecting to journal server: %w", err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{subjectPrefix + ".>"},
		Storage:  jetstream.MemoryStorage,
	})
	if err != nil {
		_ = shutdown(nc, ns)
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("creating journal stream: %w", err)
	}

	return &Journal{dir: dir, ns: ns, nc: nc, js: js, stream: stream}, nil
}

// Publish appends an event and returns its stream sequence.
func (j *Journal) Publish(ctx context.Context, event Event) (uint64, error) {
	if event.Session == "" || strings.ContainsAny(event.Session, ".*> ") {
		return 0, fmt.Errorf("invalid journal session %q", event.Session)
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := SubjectForEvent(event.Session, event.Kind)
	ack, err := j.js.Publish(ctx, subject, data)
	if err != nil {
		logger.Error("Failed to publish event to subject %s: %v", subject, err)
		return 0, fmt.Errorf("failed to publish event: %w", err)
	}

	logger.Debug("Journal event published: seq=%d kind=%s state=%s", ack.Sequence, event.Kind, event.State)
	return ack.Sequence, nil
}

// History returns every event of session in publish order.
func (j *Journal) History(ctx context.Context, session string) ([]Event, error) {
	consumer, err := j.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject: SubjectForSession(session),
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}
	defer func() {
		if err := j.stream.DeleteConsumer(context.Background(), consumer.CachedInfo().Name); err != nil {
			logger.Debug("Deleting journal consumer: %v", err)
		}
	}()

	return readAll(consumer)
}

// fetchBatch is the part of jetstream.Consumer History reads through.
type fetchBatch interface {
	FetchNoWait(batch int) (jetstream.MessageBatch, error)
}

// readAll drains c in batches. A failed fetch aborts the replay so callers
// never mistake a partial transcript for the whole one.
func readAll(c fetchBatch) ([]Event, error) {
	const batchSize = 256
	var events []Event
	for {
		msgs, err := c.FetchNoWait(batchSize)
		if err != nil {
			logger.Warn("Fetching journal events failed after %d events: %v", len(events), err)
			return nil, fmt.Errorf("failed to fetch events: %w", err)
		}

		count := 0
		for msg := range msgs.Messages() {
			count++
			var event Event
			if err := json.Unmarshal(msg.Data(), &event); err != nil {
				logger.Warn("Skipping malformed journal event: %v", err)
				_ = msg.Ack()
				continue
			}
			if meta, err := msg.Metadata(); err == nil {
				event.Seq = meta.Sequence.Stream
			}
			events = append(events, event)
			_ = msg.Ack()
		}

		if count < batchSize {
			return events, nil
		}
	}
}

// Close shuts the embedded server down and removes its store directory.
// Calling Close more than once is a no-op.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true

	err := shutdown(j.nc, j.ns)
	if rmErr := os.RemoveAll(j.dir); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}
