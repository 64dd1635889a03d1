package infrastructure

import (
	"context"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/draftea/order-saga/shared/events"
)

var _ events.MessagePublisher = (*SNSEventPublisher)(nil)

const (
	maxBatchSize = 10

	// KeyAttribute carries the partition key next to the body so consumers
	// can recover it even when the body cannot be decoded.
	KeyAttribute = "key"
	// TopicAttribute carries the logical topic name
	TopicAttribute = "topic"
)

// SNSAPI is the subset of the SNS client used by the publisher
type SNSAPI interface {
	PublishBatch(ctx context.Context, params *sns.PublishBatchInput, optFns ...func(*sns.Options)) (*sns.PublishBatchOutput, error)
}

// SNSEventPublisher publishes messages to one SNS FIFO topic per logical
// topic. The message group is the message key, so per-order ordering holds
// end to end on FIFO queues.
type SNSEventPublisher struct {
	client   SNSAPI
	topicArn func(events.Topic) string
	logger   *zap.Logger
}

func NewSNSEventPublisher(client SNSAPI, topicArn func(events.Topic) string, logger *zap.Logger) *SNSEventPublisher {
	return &SNSEventPublisher{
		client:   client,
		topicArn: topicArn,
		logger:   logger,
	}
}

// PublishMessages publishes topics in parallel. Batches of one topic are
// sent one after another to keep the caller's order.
func (p *SNSEventPublisher) PublishMessages(ctx context.Context, messages ...*events.Message) error {
	if len(messages) == 0 {
		return nil
	}

	var topics []events.Topic
	byTopic := make(map[events.Topic][]*events.Message)
	for _, message := range messages {
		if _, ok := byTopic[message.Topic]; !ok {
			topics = append(topics, message.Topic)
		}
		byTopic[message.Topic] = append(byTopic[message.Topic], message)
	}

	gr, ctx := errgroup.WithContext(ctx)

	for _, topic := range topics {
		batches := splitToChunks(byTopic[topic], maxBatchSize)
		topicArn := p.topicArn(topic)
		gr.Go(func() error {
			for _, batch := range batches {
				if err := p.batchPublish(ctx, topicArn, batch); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return gr.Wait()
}

func (p *SNSEventPublisher) batchPublish(ctx context.Context, topicArn string, messages []*events.Message) error {
	requests := make([]types.PublishBatchRequestEntry, len(messages))

	for i, message := range messages {
		attrs := map[string]types.MessageAttributeValue{
			TopicAttribute: {
				DataType:    aws.String("String"),
				StringValue: aws.String(message.Topic.String()),
			},
		}

		if message.Key != "" {
			attrs[KeyAttribute] = types.MessageAttributeValue{
				DataType:    aws.String("String"),
				StringValue: aws.String(message.Key),
			}
		}

		for k, v := range message.Metadata {
			if k == SQSMessageIDKey || k == SQSReceiptHandleKey || v == "" {
				continue
			}

			attrs[k] = types.MessageAttributeValue{
				DataType:    aws.String("String"),
				StringValue: aws.String(v),
			}
		}

		groupID := message.Key
		if groupID == "" {
			groupID = message.Topic.String()
		}

		requests[i] = types.PublishBatchRequestEntry{
			Id:                     aws.String(strconv.Itoa(i)),
			Message:                aws.String(string(message.Payload)),
			MessageAttributes:      attrs,
			MessageGroupId:         aws.String(groupID),
			MessageDeduplicationId: aws.String(message.ID),
		}
	}

	res, err := p.client.PublishBatch(ctx, &sns.PublishBatchInput{
		TopicArn:                   aws.String(topicArn),
		PublishBatchRequestEntries: requests,
	})
	if err != nil {
		return errors.Wrap(err, "failed to publish batch to SNS")
	}

	if len(res.Failed) > 0 {
		failed := make([]string, 0, len(res.Failed))
		for _, entry := range res.Failed {
			failed = append(failed, aws.ToString(entry.Id)+": "+aws.ToString(entry.Message))
		}

		p.logger.Error("SNS rejected batch entries",
			zap.String("topic_arn", topicArn),
			zap.Strings("failed", failed),
		)

		return errors.Errorf("SNS rejected %d of %d messages: %s", len(res.Failed), len(messages), strings.Join(failed, "; "))
	}

	return nil
}

// splitToChunks splits slice into chunks of specified size
func splitToChunks[T any](slice []T, chunkSize int) [][]T {
	var chunks [][]T
	for i := 0; i < len(slice); i += chunkSize {
		end := i + chunkSize
		if end > len(slice) {
			end = len(slice)
		}
		chunks = append(chunks, slice[i:end])
	}
	return chunks
}
