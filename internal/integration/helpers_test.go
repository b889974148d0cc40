//go:build integration

package integration_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/hazard-claim-verifier/internal/domain"
	"github.com/couchcryptid/hazard-claim-verifier/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("claim-verifier-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func newStore(t *testing.T) *store.SQLStore {
	t.Helper()
	db, err := sql.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "claims.db"))
	require.NoError(t, err)
	s, err := store.NewSQLite(context.Background(), db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// readTask reads one dispatch task from consumer.
func readTask(ctx context.Context, t *testing.T, consumer *kafkago.Reader) (domain.DispatchTask, map[string]string) {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read dispatch task")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	task, err := decodeTask(msg.Value)
	require.NoError(t, err)
	return task, headers
}

// waitFinalized polls the store until claimID is finalized.
func waitFinalized(ctx context.Context, t *testing.T, s *store.SQLStore, claimID string) domain.Claim {
	t.Helper()
	var claim domain.Claim
	require.Eventually(t, func() bool {
		c, err := s.GetClaim(ctx, claimID)
		if err != nil {
			return false
		}
		claim = c
		return c.Finalized()
	}, 60*time.Second, 200*time.Millisecond, "claim %s never finalized", claimID)
	return claim
}
