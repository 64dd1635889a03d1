package infrastructure

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/shared/events"
)

const (
	SQSMessageIDKey     = "sqs_message_id"
	SQSReceiptHandleKey = "sqs_receipt_handle"
)

// SQSAPI is the subset of the SQS client used by the subscriber
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	ChangeMessageVisibility(ctx context.Context, params *sqs.ChangeMessageVisibilityInput, optFns ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error)
}

type sqsMessage struct {
	Raw     types.Message
	Message *events.Message
	Err     error
}

// SQSEventSubscriber consumes one SQS FIFO queue. Messages are routed to
// workers by key so messages of one order are handled one at a time and in
// receive order, while different orders run in parallel. A handler error
// leaves the message on the queue with a growing visibility timeout.
type SQSEventSubscriber struct {
	mux     sync.Mutex
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	running atomic.Bool
	options *sqsSubscriberOptions

	shards           []chan *sqsMessage
	outboundMessages chan *sqsMessage

	client   SQSAPI
	queueURL string
	topic    events.Topic
	handler  events.MessageHandler
	logger   *zap.Logger
}

type sqsSubscriberOptions struct {
	workers                        int
	cleaners                       int
	maxNumberOfMessages            int32
	waitTimeSeconds                int32
	visibilityTimeout              int32
	sleepTimeAfterError            time.Duration
	extendVisibilityTimeoutOnError bool
	receiveCountRange              int32
	visibilityTimeoutOffset        int32
	maxVisibilityTimeout           int32
}

type SQSSubscriberOption func(*sqsSubscriberOptions)

func WithWorkers(workers int) SQSSubscriberOption {
	return func(o *sqsSubscriberOptions) {
		if workers > 0 {
			o.workers = workers
		}
	}
}

func WithVisibilityTimeout(timeout int32) SQSSubscriberOption {
	return func(o *sqsSubscriberOptions) {
		o.visibilityTimeout = timeout
	}
}

func WithWaitTime(seconds int32) SQSSubscriberOption {
	return func(o *sqsSubscriberOptions) {
		o.waitTimeSeconds = seconds
	}
}

func NewSQSEventSubscriber(
	client SQSAPI,
	queueURL string,
	topic events.Topic,
	handler events.MessageHandler,
	logger *zap.Logger,
	opts ...SQSSubscriberOption,
) *SQSEventSubscriber {
	options := &sqsSubscriberOptions{
		workers:                        8,
		cleaners:                       2,
		maxNumberOfMessages:            10,
		waitTimeSeconds:                15,
		visibilityTimeout:              30,
		sleepTimeAfterError:            5 * time.Second,
		extendVisibilityTimeoutOnError: true,
		receiveCountRange:              3,
		visibilityTimeoutOffset:        30,
		maxVisibilityTimeout:           900, // 15 minutes
	}

	for _, opt := range opts {
		opt(options)
	}

	return &SQSEventSubscriber{
		client:   client,
		queueURL: queueURL,
		topic:    topic,
		handler:  handler,
		logger:   logger.With(zap.String("queue_url", queueURL)),
		options:  options,
	}
}

// Start launches reader, workers and cleaners. They run until Stop or until
// ctx is cancelled.
func (s *SQSEventSubscriber) Start(ctx context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if s.running.Load() {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.shards = make([]chan *sqsMessage, s.options.workers)
	for i := range s.shards {
		s.shards[i] = make(chan *sqsMessage, s.options.maxNumberOfMessages)
	}
	s.outboundMessages = make(chan *sqsMessage, s.options.maxNumberOfMessages)

	for i := range s.shards {
		s.spawn(func() { s.startWorker(ctx, s.shards[i]) })
	}
	for i := 0; i < s.options.cleaners; i++ {
		s.spawn(func() { s.startCleaner(ctx) })
	}
	s.spawn(func() { s.startReader(ctx) })

	s.running.Store(true)
	s.logger.Info("SQS subscriber started", zap.String("topic", s.topic.String()))

	return nil
}

// Stop cancels the loops and waits for in-flight handlers. Messages that were
// handled but not yet deleted become visible again and are redelivered.
func (s *SQSEventSubscriber) Stop() {
	s.mux.Lock()
	defer s.mux.Unlock()

	if !s.running.Load() {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.running.Store(false)
}

func (s *SQSEventSubscriber) spawn(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

func (s *SQSEventSubscriber) startWorker(ctx context.Context, inbound <-chan *sqsMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case message := <-inbound:
			s.handle(ctx, message)
		}
	}
}

func (s *SQSEventSubscriber) startReader(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		if err := s.read(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("failed to read from SQS", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(s.options.sleepTimeAfterError):
			}
		}
	}
}

func (s *SQSEventSubscriber) startCleaner(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case message := <-s.outboundMessages:
			if err := s.clean(ctx, message); err != nil {
				s.logger.Error("failed to settle SQS message",
					zap.String("message_id", message.Message.ID),
					zap.Error(err),
				)
			}
		}
	}
}

func (s *SQSEventSubscriber) read(ctx context.Context) error {
	output, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(s.queueURL),
		MaxNumberOfMessages: s.options.maxNumberOfMessages,
		WaitTimeSeconds:     s.options.waitTimeSeconds,
		VisibilityTimeout:   s.options.visibilityTimeout,
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{
			types.MessageSystemAttributeNameApproximateReceiveCount,
			types.MessageSystemAttributeNameMessageGroupId,
		},
		MessageAttributeNames: []string{"All"},
	})
	if err != nil {
		return errors.Wrap(err, "failed to receive message from SQS")
	}

	for _, raw := range output.Messages {
		message := s.toMessage(raw)

		select {
		case s.shards[shardFor(message.Key, len(s.shards))] <- &sqsMessage{Raw: raw, Message: message}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// snsNotification is the body SQS receives from SNS without raw delivery
type snsNotification struct {
	Type              string `json:"Type"`
	Message           string `json:"Message"`
	MessageAttributes map[string]struct {
		Type  string `json:"Type"`
		Value string `json:"Value"`
	} `json:"MessageAttributes"`
}

// toMessage never fails: an undecodable body is passed on as is so that the
// runtime can dead-letter it.
func (s *SQSEventSubscriber) toMessage(raw types.Message) *events.Message {
	body := aws.ToString(raw.Body)
	metadata := make(events.Metadata)

	var notification snsNotification
	if err := json.Unmarshal([]byte(body), &notification); err == nil && notification.Type == "Notification" {
		body = notification.Message
		for k, v := range notification.MessageAttributes {
			metadata.Set(k, v.Value)
		}
	}

	for k, v := range raw.MessageAttributes {
		if v.StringValue != nil {
			metadata.Set(k, *v.StringValue)
		}
	}

	metadata.Set(SQSMessageIDKey, aws.ToString(raw.MessageId))
	metadata.Set(SQSReceiptHandleKey, aws.ToString(raw.ReceiptHandle))

	key, ok := metadata.Get(KeyAttribute)
	if !ok {
		key = raw.Attributes[string(types.MessageSystemAttributeNameMessageGroupId)]
	}

	attempt, err := strconv.Atoi(raw.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)])
	if err != nil || attempt < 1 {
		attempt = 1
	}

	return &events.Message{
		ID:              aws.ToString(raw.MessageId),
		Topic:           s.topic,
		Key:             key,
		Payload:         []byte(body),
		Metadata:        metadata,
		Timestamp:       time.Now().UTC(),
		DeliveryAttempt: attempt,
	}
}

func (s *SQSEventSubscriber) handle(ctx context.Context, message *sqsMessage) {
	message.Err = s.handler.Handle(ctx, message.Message)

	select {
	case s.outboundMessages <- message:
	case <-ctx.Done():
	}
}

// clean deletes handled messages and backs off failed ones
func (s *SQSEventSubscriber) clean(ctx context.Context, message *sqsMessage) error {
	if message.Err != nil {
		if !s.options.extendVisibilityTimeoutOnError {
			return nil
		}

		visibilityTimeout := s.options.visibilityTimeout
		visibilityTimeout += (int32(message.Message.DeliveryAttempt) / s.options.receiveCountRange) * s.options.visibilityTimeoutOffset
		if visibilityTimeout > s.options.maxVisibilityTimeout {
			visibilityTimeout = s.options.maxVisibilityTimeout
		}

		_, err := s.client.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
			QueueUrl:          aws.String(s.queueURL),
			ReceiptHandle:     message.Raw.ReceiptHandle,
			VisibilityTimeout: visibilityTimeout,
		})
		return errors.Wrap(err, "failed to extend visibility timeout")
	}

	_, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(s.queueURL),
		ReceiptHandle: message.Raw.ReceiptHandle,
	})
	return errors.Wrap(err, "failed to delete message from SQS")
}

func shardFor(key string, shards int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(shards))
}
