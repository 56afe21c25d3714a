package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/jogardn/shop-console/internal/console"
	"github.com/sirupsen/logrus"
)

const (
	ActivityTopic = "console.activity"

	queueSize    = 256
	closeTimeout = 5 * time.Second
)

var (
	ErrQueueFull      = errors.New("activity queue is full")
	ErrProducerClosed = errors.New("activity producer is closed")
)

// ActivityEvent is one operator action as published on the activity topic.
type ActivityEvent struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	Data      json.RawMessage `json:"data,omitempty"`
	EventTime time.Time       `json:"event_time"`
}

// ActivityProducer queues events and sends them in the background. A send
// is attempted once; failures are logged and counted.
type ActivityProducer struct {
	producer sarama.AsyncProducer
	topic    string
	logger   *logrus.Logger

	mutex  sync.RWMutex
	closed bool
	queue  chan *sarama.ProducerMessage
	abort  chan struct{}

	forwarding   sync.WaitGroup
	draining     sync.WaitGroup
	closeTimeout time.Duration
	failed       atomic.Int64
}

func producerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Retry.Max = 0
	config.Producer.Return.Successes = false
	config.Producer.Return.Errors = true
	config.Version = sarama.V2_6_0_0
	return config
}

// NewActivityProducer connects to a comma separated broker list.
func NewActivityProducer(brokers, topic string, logger *logrus.Logger) (*ActivityProducer, error) {
	producer, err := sarama.NewAsyncProducer(strings.Split(brokers, ","), producerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return newActivityProducer(producer, topic, logger), nil
}

func newActivityProducer(producer sarama.AsyncProducer, topic string, logger *logrus.Logger) *ActivityProducer {
	if topic == "" {
		topic = ActivityTopic
	}
	p := &ActivityProducer{
		producer:     producer,
		topic:        topic,
		logger:       logger,
		queue:        make(chan *sarama.ProducerMessage, queueSize),
		abort:        make(chan struct{}),
		closeTimeout: closeTimeout,
	}

	p.forwarding.Add(1)
	go p.forward()
	p.draining.Add(1)
	go p.drainErrors()
	return p
}

func (p *ActivityProducer) forward() {
	defer p.forwarding.Done()
	for msg := range p.queue {
		select {
		case p.producer.Input() <- msg:
		case <-p.abort:
			return
		}
	}
}

func (p *ActivityProducer) drainErrors() {
	defer p.draining.Done()
	for perr := range p.producer.Errors() {
		p.failed.Add(1)
		p.logger.WithError(perr.Err).WithField("topic", p.topic).Error("Failed to send message to Kafka")
	}
}

// PublishActivity queues event keyed by session, so one session's actions
// stay ordered within a partition. It never waits for the broker.
func (p *ActivityProducer) PublishActivity(event ActivityEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	event.EventTime = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal activity event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.SessionID),
		Value: sarama.ByteEncoder(data),
	}

	if err := p.enqueue(msg); err != nil {
		p.failed.Add(1)
		p.logger.WithError(err).WithField("event_type", event.Type).Warn("Dropped activity event")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"topic":      p.topic,
		"event_type": event.Type,
		"session_id": event.SessionID,
	}).Debug("Event queued for Kafka")
	return nil
}

func (p *ActivityProducer) enqueue(msg *sarama.ProducerMessage) error {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}
	select {
	case p.queue <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Publish forwards console events to Kafka. View refreshes are only of
// interest to the browser and are skipped. Failures are logged and
// otherwise ignored.
func (p *ActivityProducer) Publish(ctx context.Context, event console.Event) {
	if event.Type == console.EventViewChanged {
		return
	}

	var data json.RawMessage
	if event.Data != nil {
		encoded, err := json.Marshal(event.Data)
		if err != nil {
			p.logger.WithError(err).WithField("event_type", event.Type).Error("Failed to encode activity data")
			return
		}
		data = encoded
	}

	p.PublishActivity(ActivityEvent{
		Type:      event.Type,
		SessionID: event.SessionID,
		Data:      data,
	})
}

// Failed counts events that were dropped or rejected by the broker.
func (p *ActivityProducer) Failed() int64 {
	return p.failed.Load()
}

// Close hands queued events to the producer, waiting at most closeTimeout
// for it to accept them, then shuts the producer down.
func (p *ActivityProducer) Close() error {
	p.mutex.Lock()
	if p.closed {
		p.mutex.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mutex.Unlock()

	done := make(chan struct{})
	go func() {
		p.forwarding.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(p.closeTimeout):
		p.logger.WithField("pending", len(p.queue)).Warn("Dropping unsent activity events")
		close(p.abort)
		<-done
	}

	p.producer.AsyncClose()
	p.draining.Wait()
	return nil
}
