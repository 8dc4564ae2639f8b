package kafka_middleware

import (
	"context"
	"sync/atomic"
	"time"

	"innkeep/pkg/kafka"
)

// Metrics counts publish and consume outcomes for the readiness report.
type Metrics struct {
	published       atomic.Int64
	publishFailed   atomic.Int64
	publishDuration atomic.Int64

	consumed        atomic.Int64
	consumeFailed   atomic.Int64
	consumeDuration atomic.Int64
}

type Snapshot struct {
	Published          int64  `json:"published"`
	PublishFailed      int64  `json:"publish_failed"`
	AvgPublishDuration string `json:"avg_publish_duration"`
	Consumed           int64  `json:"consumed"`
	ConsumeFailed      int64  `json:"consume_failed"`
	AvgConsumeDuration string `json:"avg_consume_duration"`
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Snapshot() Snapshot {
	published := m.published.Load()
	consumed := m.consumed.Load()
	return Snapshot{
		Published:          published,
		PublishFailed:      m.publishFailed.Load(),
		AvgPublishDuration: average(m.publishDuration.Load(), published+m.publishFailed.Load()).String(),
		Consumed:           consumed,
		ConsumeFailed:      m.consumeFailed.Load(),
		AvgConsumeDuration: average(m.consumeDuration.Load(), consumed+m.consumeFailed.Load()).String(),
	}
}

func average(total, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(total / count)
}

func MetricsProducerMiddleware(m *Metrics) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		m.publishDuration.Add(int64(time.Since(start)))

		if err != nil {
			m.publishFailed.Add(1)
		} else {
			m.published.Add(1)
		}
		return err
	}
}

func MetricsConsumerMiddleware(m *Metrics) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		m.consumeDuration.Add(int64(time.Since(start)))

		if err != nil {
			m.consumeFailed.Add(1)
		} else {
			m.consumed.Add(1)
		}
		return err
	}
}
