// Package events publishes completed attendance events to Kafka for
// downstream consumers (payroll, alerting). Publishing is fire-and-forget:
// the attendance flow never waits on the broker.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"timeclock/internal/domain"
	"timeclock/internal/platform/config"
)

// ClockEventPayload is the wire shape of one attendance event.
type ClockEventPayload struct {
	LogID          string    `json:"log_id"`
	UserID         string    `json:"user_id"`
	UserFullName   string    `json:"user_full_name"`
	StoreID        string    `json:"store_id"`
	StoreName      string    `json:"store_name"`
	Type           string    `json:"type"`
	Timestamp      time.Time `json:"timestamp"`
	HasIncident    bool      `json:"has_incident"`
	IncidentDetail string    `json:"incident_detail,omitempty"`
	IdentityScore  int       `json:"identity_score"`
}

// Publisher is nil-safe: a nil *Publisher drops events silently, so callers
// need no configuration check.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewPublisher connects to the brokers. Returns nil when none are configured.
func NewPublisher(cfg config.KafkaConfig, logger *slog.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{client: client, topic: cfg.Topic, logger: logger}, nil
}

// ClockEvent publishes one attendance event, keyed by user so per-employee
// ordering holds.
func (p *Publisher) ClockEvent(ctx context.Context, log domain.TimeLog) {
	if p == nil {
		return
	}

	payload, err := json.Marshal(ClockEventPayload{
		LogID:          log.ID,
		UserID:         log.UserID,
		UserFullName:   log.UserFullName,
		StoreID:        log.StoreID,
		StoreName:      log.StoreName,
		Type:           string(log.Type),
		Timestamp:      log.Timestamp,
		HasIncident:    log.HasIncident,
		IncidentDetail: log.IncidentDetail,
		IdentityScore:  log.IdentityScore,
	})
	if err != nil {
		p.logger.Error("marshal clock event", "log_id", log.ID, "error", err)
		return
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(log.UserID),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Warn("clock event publish failed", "log_id", log.ID, "error", err)
		}
	})
}

// Close flushes pending records and shuts the client down.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}
