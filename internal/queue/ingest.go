package queue

import (
	"context"
	"encoding/json"

	"github.com/rabbitmq/amqp091-go"

	"github.com/lumen-fi/advisor/pkg/advisor"
	"github.com/lumen-fi/advisor/pkg/common"
	"github.com/lumen-fi/advisor/pkg/logger"
)

// IngestMsg is one queued document ingestion job.
type IngestMsg struct {
	DocumentPath string `json:"document_path"`
	OwnerID      string `json:"owner_id"`
}

// PublishIngest enqueues a document for background ingestion.
func PublishIngest(ch *amqp091.Channel, msg IngestMsg) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return PublishFIFO(ch, IngestQueue, data)
}

// ConsumeIngest processes ingestion jobs one at a time until the context is
// cancelled. A failed job is requeued once; the second failure dead-letters
// it.
func ConsumeIngest(ctx context.Context, ch *amqp091.Channel, client *advisor.Client) error {
	if err := ch.Qos(1, 0, false); err != nil {
		return err
	}

	deliveries, err := ch.Consume(
		IngestQueue,
		"",    // consumer
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return amqp091.ErrClosed
			}
			handleIngest(ctx, client, delivery)
		}
	}
}

func handleIngest(ctx context.Context, client *advisor.Client, delivery amqp091.Delivery) {
	var msg IngestMsg
	if err := json.Unmarshal(delivery.Body, &msg); err != nil {
		logger.Error("[Queue] Undecodable ingest message, dead-lettering", "err", err)
		if err := delivery.Nack(false, false); err != nil {
			logger.Warn("[Queue] Nack failed", "err", err)
		}
		return
	}

	result := client.ProcessDocument(ctx, msg.DocumentPath, msg.OwnerID)
	if result.Status == common.IngestStatusError {
		requeue := !delivery.Redelivered
		logger.Warn("[Queue] Ingestion failed",
			"path", msg.DocumentPath, "owner_id", msg.OwnerID,
			"message", result.Message, "requeue", requeue)
		if err := delivery.Nack(false, requeue); err != nil {
			logger.Warn("[Queue] Nack failed", "err", err)
		}
		return
	}

	if err := delivery.Ack(false); err != nil {
		logger.Warn("[Queue] Ack failed", "err", err)
	}
}
