package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/lumen-fi/advisor/internal/util"
	"github.com/lumen-fi/advisor/pkg/logger"
)

// IngestQueue carries document ingestion jobs for the worker.
const IngestQueue = "ingest_queue"

func Init() *amqp091.Connection {
	user := util.GetEnv("RABBITMQ_USER")
	pass := util.GetEnv("RABBITMQ_PASSWORD")
	host := util.GetEnv("RABBITMQ_HOST")
	port := util.GetEnv("RABBITMQ_PORT")

	connURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		user,
		pass,
		host,
		port,
	)

	// the broker may still be starting up alongside us
	conn, err := util.RetryWithBackoff(context.Background(), 5, time.Second,
		func(ctx context.Context) (*amqp091.Connection, error) {
			return amqp091.Dial(connURL)
		})
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}

	return conn
}

// SetupQueues declares the work queues with their dead-letter companions.
// A message that fails twice lands in the DLQ instead of cycling forever.
func SetupQueues(ch *amqp091.Channel, queueNames []string) error {
	for _, name := range queueNames {
		dlqName := name + "_dlq"
		_, err := ch.QueueDeclare(
			dlqName,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			logger.Fatal("QueueDeclare failed", "queue", dlqName, "err", err)
		}

		_, err = ch.QueueDeclare(
			name,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": dlqName,
			},
		)
		if err != nil {
			logger.Fatal("QueueDeclare failed", "queue", name, "err", err)
		}
	}

	return nil
}

// PublishFIFO publishes a persistent message to a work queue via the
// default exchange.
func PublishFIFO(ch *amqp091.Channel, queueName string, data []byte) error {
	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	return ch.Publish(
		"",
		queueName,
		false,
		false,
		publishing,
	)
}
