package saga

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/shared/events"
)

var ErrHandlerExists = errors.New("handler already registered for topic")

// Choreography holds the runtimes of one stage, one per consumed topic, and
// subscribes them on the stage's broker connection.
type Choreography struct {
	stage       string
	deadLetters DeadLetterSink
	logger      *zap.Logger
	opts        []Option

	runtimes map[events.Topic]*Runtime
	topics   []events.Topic
}

func NewChoreography(stage string, deadLetters DeadLetterSink, logger *zap.Logger, opts ...Option) *Choreography {
	return &Choreography{
		stage:       stage,
		deadLetters: deadLetters,
		logger:      logger,
		opts:        opts,
		runtimes:    make(map[events.Topic]*Runtime),
	}
}

// RegisterHandler creates the runtime consuming topic with handler
func (c *Choreography) RegisterHandler(topic events.Topic, handler Handler) error {
	if _, exists := c.runtimes[topic]; exists {
		return errors.Wrapf(ErrHandlerExists, "%s/%s", c.stage, topic)
	}

	c.runtimes[topic] = NewRuntime(c.stage, topic, handler, c.deadLetters, c.logger, c.opts...)
	c.topics = append(c.topics, topic)
	return nil
}

// Topics returns the consumed topics in registration order
func (c *Choreography) Topics() []events.Topic {
	topics := make([]events.Topic, len(c.topics))
	copy(topics, c.topics)
	return topics
}

func (c *Choreography) Runtime(topic events.Topic) (*Runtime, bool) {
	r, ok := c.runtimes[topic]
	return r, ok
}

// Start subscribes every runtime. The subscriber owns the consumer loops and
// stops them on Close.
func (c *Choreography) Start(ctx context.Context, subscriber events.Subscriber) error {
	for _, topic := range c.topics {
		if err := subscriber.Subscribe(ctx, topic, c.runtimes[topic]); err != nil {
			return errors.Wrapf(err, "failed to subscribe %s to %s", c.stage, topic)
		}
		c.logger.Info("consumer started", zap.String("stage", c.stage), zap.String("topic", topic.String()))
	}
	return nil
}
