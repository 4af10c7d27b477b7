//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"reclamacidade/pkg/platform/audit"
	"reclamacidade/pkg/platform/audit/sink/kafka"
	"reclamacidade/pkg/testutil/containers"
)

func TestSink_AppendProducesKeyedEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	redpanda := containers.NewRedpandaContainer(t)

	const topic = "reclama.audit.test"
	sink, err := kafka.NewSink(ctx, []string{redpanda.Broker}, topic)
	require.NoError(t, err)
	defer sink.Close()

	reportID := uuid.NewString()
	event := audit.Event{
		Timestamp: time.Now().UTC(),
		Action:    audit.ActionReportEndorsed,
		Actor:     "bob@example.com",
		ReportID:  reportID,
	}
	require.NoError(t, sink.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetchCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	fetches := consumer.PollFetches(fetchCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, reportID, string(records[0].Key))

	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, audit.ActionReportEndorsed, got.Action)
	require.Equal(t, "bob@example.com", got.Actor)
}
