//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/climate-index-engine/internal/job"
)

// startKafka launches a single-node Kafka container and returns its broker
// address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("climdex-test"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
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

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// summerDaysRequest builds a su job over July 2021 with hot days counted.
func summerDaysRequest(jobID string, hotDays int) job.Request {
	start := time.Date(2021, time.July, 1, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, 31)
	data := make(job.Grid, 31)
	for i := range times {
		times[i] = start.AddDate(0, 0, i)
		value := 20.0
		if i < hotDays {
			value = 30.0
		}
		data[i] = []float64{value}
	}
	return job.Request{
		JobID:     jobID,
		Index:     "su",
		Frequency: "month",
		Variables: []job.Variable{{
			Name:     "tasmax",
			Unit:     "degC",
			Times:    times,
			Data:     data,
			Sampling: "daily",
		}},
	}
}
