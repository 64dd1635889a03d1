package infrastructure

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/shared/events"
)

var (
	_ events.MessagePublisher = (*MemoryBroker)(nil)
	_ events.Subscriber       = (*MemoryBroker)(nil)

	ErrBrokerClosed = errors.New("broker closed")
)

// MemoryBroker is an in-process at-least-once broker with per-key ordering.
// Every subscription splits its deliveries into shards by key; a shard
// handles one message at a time and retries a failed message in place
// before moving on, the way a partitioned log would.
type MemoryBroker struct {
	mu            sync.RWMutex
	subscriptions []*memorySubscription
	log           map[events.Topic][]*events.Message
	closed        bool

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	inflight atomic.Int64

	shards      int
	retryDelay  time.Duration
	maxAttempts int
	logger      *zap.Logger
}

type MemoryBrokerOption func(*MemoryBroker)

func WithShards(n int) MemoryBrokerOption {
	return func(b *MemoryBroker) {
		if n > 0 {
			b.shards = n
		}
	}
}

func WithRetryDelay(d time.Duration) MemoryBrokerOption {
	return func(b *MemoryBroker) {
		b.retryDelay = d
	}
}

// WithMaxAttempts bounds in-place redelivery; a message still failing after
// it is dropped with an error log.
func WithMaxAttempts(n int) MemoryBrokerOption {
	return func(b *MemoryBroker) {
		if n > 0 {
			b.maxAttempts = n
		}
	}
}

func NewMemoryBroker(logger *zap.Logger, opts ...MemoryBrokerOption) *MemoryBroker {
	ctx, cancel := context.WithCancel(context.Background())

	b := &MemoryBroker{
		log:         make(map[events.Topic][]*events.Message),
		ctx:         ctx,
		cancel:      cancel,
		shards:      4,
		retryDelay:  10 * time.Millisecond,
		maxAttempts: 100,
		logger:      logger,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

type memorySubscription struct {
	pattern events.Topic
	handler events.MessageHandler
	shards  []*memoryShard
}

type memoryShard struct {
	mu      sync.Mutex
	backlog []*events.Message
	notify  chan struct{}
}

func (s *memoryShard) push(message *events.Message) {
	s.mu.Lock()
	s.backlog = append(s.backlog, message)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *memoryShard) pop() (*events.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.backlog) == 0 {
		return nil, false
	}

	message := s.backlog[0]
	s.backlog[0] = nil
	s.backlog = s.backlog[1:]
	return message, true
}

// PublishMessages records the messages and enqueues a copy for every
// matching subscription. It never blocks on consumers.
func (b *MemoryBroker) PublishMessages(_ context.Context, messages ...*events.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBrokerClosed
	}

	for _, message := range messages {
		b.log[message.Topic] = append(b.log[message.Topic], message.Clone())

		for _, sub := range b.subscriptions {
			if !message.Topic.Matches(sub.pattern) {
				continue
			}

			delivery := message.Clone()
			delivery.DeliveryAttempt = 1

			b.inflight.Add(1)
			sub.shards[shardFor(message.Key, len(sub.shards))].push(delivery)
		}
	}

	return nil
}

// Subscribe registers handler for a topic or pattern. Consumption stops when
// ctx is cancelled or the broker is closed.
func (b *MemoryBroker) Subscribe(ctx context.Context, topic events.Topic, handler events.MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBrokerClosed
	}

	sub := &memorySubscription{
		pattern: topic,
		handler: handler,
		shards:  make([]*memoryShard, b.shards),
	}

	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(b.ctx, cancel)

	var shardWG sync.WaitGroup
	for i := range sub.shards {
		shard := &memoryShard{notify: make(chan struct{}, 1)}
		sub.shards[i] = shard

		shardWG.Add(1)
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			defer shardWG.Done()
			b.consume(ctx, sub.handler, shard)
		}()
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		shardWG.Wait()
		stop()
		cancel()
	}()

	b.subscriptions = append(b.subscriptions, sub)
	return nil
}

func (b *MemoryBroker) consume(ctx context.Context, handler events.MessageHandler, shard *memoryShard) {
	for {
		message, ok := shard.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-shard.notify:
				continue
			}
		}

		b.deliver(ctx, handler, message)
		b.inflight.Add(-1)
	}
}

func (b *MemoryBroker) deliver(ctx context.Context, handler events.MessageHandler, message *events.Message) {
	for {
		err := handler.Handle(ctx, message.Clone())
		if err == nil {
			return
		}

		if message.DeliveryAttempt >= b.maxAttempts {
			b.logger.Error("dropping message after max delivery attempts",
				zap.String("topic", message.Topic.String()),
				zap.String("key", message.Key),
				zap.Int("attempts", message.DeliveryAttempt),
				zap.Error(err),
			)
			return
		}

		message.DeliveryAttempt++

		select {
		case <-ctx.Done():
			return
		case <-time.After(b.retryDelay):
		}
	}
}

// Published returns copies of every message published on topic, in order
func (b *MemoryBroker) Published(topic events.Topic) []*events.Message {
	b.mu.RLock()
	defer b.mu.RUnlock()

	messages := make([]*events.Message, 0, len(b.log[topic]))
	for _, message := range b.log[topic] {
		messages = append(messages, message.Clone())
	}
	return messages
}

// WaitIdle blocks until every enqueued delivery has been settled, including
// deliveries caused by handlers publishing further messages.
func (b *MemoryBroker) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()

	for {
		if b.inflight.Load() == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "%d deliveries still in flight", b.inflight.Load())
		case <-ticker.C:
		}
	}
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()
	return nil
}
