//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"registrar/internal/audit"
	"registrar/internal/school/store"
	"registrar/pkg/testutil/containers"
)

type RelaySuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	redpanda *containers.RedpandaContainer
	outbox   *audit.PostgresStore
}

func TestRelaySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.redpanda = mgr.GetRedpanda(s.T())

	ctx := context.Background()
	s.Require().NoError(store.EnsureSchema(ctx, s.postgres.DB))
	s.outbox = audit.NewPostgresStore(s.postgres.DB)
}

func (s *RelaySuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "outbox"))
}

func (s *RelaySuite) TestRelayPublishesOutboxEntries() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	topic := "school.changes.relay-test"
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for i := int64(1); i <= 3; i++ {
		s.Require().NoError(s.outbox.Append(ctx, audit.Event{
			Action:    audit.ActionSchoolCreated,
			SchoolID:  i,
			Timestamp: time.Now().UTC(),
		}))
	}

	relay, err := audit.NewKafkaRelay(ctx, s.redpanda.Brokers, topic, s.outbox, logger)
	s.Require().NoError(err)

	relayCtx, stopRelay := context.WithTimeout(ctx, 10*time.Second)
	defer stopRelay()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = relay.Run(relayCtx)
	}()

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	var events []audit.Event
	deadline := time.Now().Add(15 * time.Second)
	for len(events) < 3 && time.Now().Before(deadline) {
		pollCtx, pollCancel := context.WithTimeout(ctx, 2*time.Second)
		fetches := consumer.PollFetches(pollCtx)
		pollCancel()
		fetches.EachRecord(func(record *kgo.Record) {
			var event audit.Event
			if err := json.Unmarshal(record.Value, &event); err == nil {
				events = append(events, event)
			}
		})
	}

	stopRelay()
	<-done

	s.Require().Len(events, 3)
	seen := map[int64]bool{}
	for _, e := range events {
		s.Equal(audit.ActionSchoolCreated, e.Action)
		seen[e.SchoolID] = true
	}
	s.Len(seen, 3)

	entries, err := s.outbox.FetchUnpublished(context.Background(), 10)
	s.Require().NoError(err)
	s.Empty(entries, "relayed entries must be marked published")
}
