package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/IBM/sarama"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/talentflow/sourcing-engine/internal/config"
	"go.uber.org/zap"
)

var _ Bus = (*KafkaBus)(nil)

// KafkaBus is the multi-process Bus. Publishing goes through one async
// producer; every Subscribe call owns its own consumer group session.
// Messages are keyed by correlation id so one pipeline's events stay on one
// partition per topic.
type KafkaBus struct {
	brokers     []string
	saramaCfg   *sarama.Config
	groupPrefix string

	producer sarama.AsyncProducer

	mu     sync.Mutex
	groups []sarama.ConsumerGroup

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewKafkaBus(cfg *config.Config) (*KafkaBus, error) {
	kafka := cfg.Service.Kafka
	if len(kafka.Brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}

	saramaCfg := kafka.SaramaConfig
	if saramaCfg == nil {
		saramaCfg = sarama.NewConfig()
		saramaCfg.ClientID = kafka.ClientID
		if kafka.Version != (sarama.KafkaVersion{}) {
			saramaCfg.Version = kafka.Version
		}
		saramaCfg.Producer.RequiredAcks = sarama.WaitForLocal
		saramaCfg.Producer.Retry.Max = 5
		saramaCfg.Producer.Return.Errors = true
		saramaCfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	}

	producer, err := sarama.NewAsyncProducer(kafka.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &KafkaBus{
		brokers:     kafka.Brokers,
		saramaCfg:   saramaCfg,
		groupPrefix: kafka.GroupPrefix,
		producer:    producer,
		ctx:         ctx,
		cancel:      cancel,
	}

	b.wg.Add(1)
	go b.drainProducerErrors()

	return b, nil
}

func (b *KafkaBus) Publish(ctx context.Context, topic string, e cloudevents.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", e.ID(), err)
	}

	key := e.ID()
	if correlationID, err := CorrelationID(e); err == nil {
		key = correlationID.String()
	}

	msg := &sarama.ProducerMessage{
		Topic: kafkaTopic(topic),
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}

	select {
	case b.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-b.ctx.Done():
		return fmt.Errorf("bus is closed")
	}
}

func (b *KafkaBus) Subscribe(group string, topics []string, h Handler) error {
	cg, err := sarama.NewConsumerGroup(b.brokers, b.groupID(group), b.saramaCfg)
	if err != nil {
		return fmt.Errorf("failed to create consumer group %q: %w", group, err)
	}

	b.mu.Lock()
	b.groups = append(b.groups, cg)
	b.mu.Unlock()

	kafkaTopics := make([]string, 0, len(topics))
	for _, t := range topics {
		kafkaTopics = append(kafkaTopics, kafkaTopic(t))
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		handler := &consumerGroupHandler{handler: h}
		for {
			if err := cg.Consume(b.ctx, kafkaTopics, handler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				zap.S().Named("kafka_bus").Errorw("consume session ended", "group", group, "error", err)
			}
			if b.ctx.Err() != nil {
				return
			}
		}
	}()

	return nil
}

func (b *KafkaBus) Close() error {
	b.cancel()

	b.mu.Lock()
	groups := b.groups
	b.groups = nil
	b.mu.Unlock()

	var firstErr error
	for _, cg := range groups {
		if err := cg.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := b.producer.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	b.wg.Wait()

	if firstErr != nil {
		zap.S().Named("kafka_bus").Errorw("kafka bus closed with error", "error", firstErr)
		return firstErr
	}

	zap.S().Named("kafka_bus").Info("kafka bus closed")
	return nil
}

func (b *KafkaBus) drainProducerErrors() {
	defer b.wg.Done()
	for err := range b.producer.Errors() {
		zap.S().Named("kafka_bus").Errorw("failed to send message", "topic", err.Msg.Topic, "error", err.Err)
	}
}

func (b *KafkaBus) groupID(group string) string {
	if b.groupPrefix == "" {
		return group
	}
	return b.groupPrefix + "-" + group
}

// kafkaTopic maps a catalog topic name to a broker-legal one. Kafka topic
// names cannot contain colons.
func kafkaTopic(topic string) string {
	return strings.ReplaceAll(topic, ":", ".")
}

type consumerGroupHandler struct {
	handler Handler
}

func (c *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (c *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (c *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		e := cloudevents.NewEvent()
		if err := json.Unmarshal(msg.Value, &e); err != nil {
			zap.S().Named("kafka_bus").Errorw("failed to decode event, skipping", "topic", msg.Topic, "offset", msg.Offset, "error", err)
			session.MarkMessage(msg, "")
			continue
		}

		// Offsets are marked after the handler returns: at-least-once.
		c.handler(session.Context(), e)
		session.MarkMessage(msg, "")
	}
	return nil
}
