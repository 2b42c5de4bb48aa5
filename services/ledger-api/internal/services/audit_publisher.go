package services

import (
	"encoding/json"
	"strconv"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/custodialbank/ledger/pkg/views"
	"github.com/custodialbank/ledger/services/ledger-api/configs"
	"go.uber.org/zap"
)

// AuditPublisher emits transfer-completed events after a unit of work commits.
// Publishing is best effort: the ledger row is the source of truth.
type AuditPublisher interface {
	PublishTransfer(event views.TransferEvent) error
	Close()
}

type KafkaAuditPublisher struct {
	logger   *zap.Logger
	producer *kafka.Producer
	topic    string
}

// NewKafkaAuditPublisher creates a Kafka-backed publisher.
func NewKafkaAuditPublisher(logger *zap.Logger, cnf *configs.Config) (AuditPublisher, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  cnf.KafkaBrokers,
		"acks":               "all",
		"enable.idempotence": "true", // Ensure events are not sent twice
		"retries":            "1",
	})
	if err != nil {
		return nil, err
	}
	logger.Info("kafka audit producer created", zap.String("brokers", cnf.KafkaBrokers))
	go handleDeliveryReports(logger, p) // Async error handling
	return &KafkaAuditPublisher{
		logger:   logger,
		producer: p,
		topic:    cnf.KafkaAuditTopic,
	}, nil
}

func (k *KafkaAuditPublisher) PublishTransfer(event views.TransferEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	// Key by sender so one account's events stay ordered per partition.
	return k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &k.topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(strconv.FormatInt(event.FromUserID, 10)),
		Value: msgBytes,
	}, nil)
}

func (k *KafkaAuditPublisher) Close() {
	k.producer.Flush(5000)
	k.producer.Close()
}

func handleDeliveryReports(logger *zap.Logger, p *kafka.Producer) {
	for e := range p.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				logger.Error("failed to publish audit event", zap.Error(ev.TopicPartition.Error))
			}
		}
	}
}

// NoopAuditPublisher is used when no brokers are configured.
type NoopAuditPublisher struct{}

func (NoopAuditPublisher) PublishTransfer(views.TransferEvent) error { return nil }
func (NoopAuditPublisher) Close()                                    {}
