package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avelore/consignpos-import-service/internal/importer"
	"github.com/avelore/consignpos-import-service/pkg/broker"
	"github.com/avelore/consignpos-import-service/pkg/logger"
	"go.uber.org/zap"
)

// ManifestListener consumes POS drop-off manifest events and feeds them into
// the staging pipeline, the same way a CSV upload would.
type ManifestListener struct {
	consumer *broker.KafkaConsumer
	uc       importer.UseCase
	logger   logger.ZapLogger
}

func NewManifestListener(consumer *broker.KafkaConsumer, uc importer.UseCase, logger logger.ZapLogger) *ManifestListener {
	return &ManifestListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
	}
}

func (l *ManifestListener) Start(ctx context.Context) {
	l.logger.Info("Starting Manifest Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Manifest Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type ManifestReceivedEvent struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Payload   ManifestPayload `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

type ManifestPayload struct {
	ManifestID string `json:"manifest_id"`
	MerchantID string `json:"merchant_id"`
	AutoAssign bool   `json:"auto_assign"`
}

func (l *ManifestListener) processMessage(ctx context.Context, value []byte) {
	var event ManifestReceivedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != "ManifestReceived" {
		return
	}

	l.logger.Info("Processing ManifestReceived event",
		zap.String("manifest_id", event.Payload.ManifestID),
		zap.String("merchant_id", event.Payload.MerchantID),
	)

	items, err := l.uc.IngestManifest(ctx, event.Payload.MerchantID, event.Payload.ManifestID, event.Payload.AutoAssign)
	if err != nil {
		l.logger.Error("Failed to stage manifest items",
			zap.String("manifest_id", event.Payload.ManifestID),
			zap.Error(err),
		)
		return
	}

	l.logger.Info("Manifest staged",
		zap.String("manifest_id", event.Payload.ManifestID),
		zap.Int("items", len(items)),
	)
}
