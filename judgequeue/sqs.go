package judgequeue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SqsJobQueue implements JobQueue on an AWS SQS queue. SQS provides the
// durability, at-least-once delivery and the visibility lease; decoding
// and schema validation happen here at the receive boundary.
type SqsJobQueue struct {
	logger   *slog.Logger
	client   *sqs.Client
	queueUrl string
}

func NewSqsJobQueue(logger *slog.Logger, client *sqs.Client, queueUrl string) *SqsJobQueue {
	return &SqsJobQueue{
		logger:   logger,
		client:   client,
		queueUrl: queueUrl,
	}
}

func (q *SqsJobQueue) Enqueue(ctx context.Context, job JudgeJob) error {
	if err := job.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal judge job: %w", err)
	}
	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueUrl),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to send message to judge queue: %w", err)
	}
	return nil
}

func (q *SqsJobQueue) Receive(ctx context.Context) ([]JobMsg, error) {
	output, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.queueUrl),
		MaxNumberOfMessages: 10,
		WaitTimeSeconds:     5,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to receive messages: %w", err)
	}

	msgs := make([]JobMsg, 0, len(output.Messages))
	for _, msg := range output.Messages {
		if msg.Body == nil || msg.ReceiptHandle == nil {
			q.logger.Error("received sqs message without body or handle")
			continue
		}
		job, decErr := decodeJob(*msg.Body)
		msgs = append(msgs, JobMsg{
			Job:    job,
			Raw:    *msg.Body,
			Handle: *msg.ReceiptHandle,
			DecErr: decErr,
		})
	}
	return msgs, nil
}

func (q *SqsJobQueue) Ack(ctx context.Context, handle string) error {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueUrl),
		ReceiptHandle: aws.String(handle),
	})
	if err != nil {
		return fmt.Errorf("failed to ack message: %w", err)
	}
	return nil
}

// SqsDeadLetter sends exhausted jobs to a second SQS queue.
type SqsDeadLetter struct {
	logger   *slog.Logger
	client   *sqs.Client
	queueUrl string
}

func NewSqsDeadLetter(logger *slog.Logger, client *sqs.Client, queueUrl string) *SqsDeadLetter {
	return &SqsDeadLetter{
		logger:   logger,
		client:   client,
		queueUrl: queueUrl,
	}
}

func (d *SqsDeadLetter) Send(ctx context.Context, dead DeadJob) error {
	if dead.DeadAt.IsZero() {
		dead.DeadAt = time.Now()
	}
	body, err := json.Marshal(dead)
	if err != nil {
		return fmt.Errorf("failed to marshal dead job: %w", err)
	}
	_, err = d.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(d.queueUrl),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to send message to dead-letter queue: %w", err)
	}
	d.logger.Warn("job dead-lettered", "reason", dead.Reason)
	return nil
}

func GetSqsClientFromEnv() *sqs.Client {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(getAwsRegionFromEnv()),
		config.WithRetryer(func() aws.Retryer {
			return retry.AddWithMaxAttempts(retry.NewStandard(), 10)
		}),
	)
	if err != nil {
		panic(fmt.Errorf("unable to load SDK config, %v", err))
	}
	return sqs.NewFromConfig(cfg)
}

func GetJudgeSqsUrlFromEnv() string {
	url := os.Getenv("JUDGE_SQS_QUEUE_URL")
	if url == "" {
		panic("JUDGE_SQS_QUEUE_URL not set in .env file")
	}
	return url
}

func GetDeadLetterSqsUrlFromEnv() string {
	url := os.Getenv("JUDGE_DLQ_SQS_QUEUE_URL")
	if url == "" {
		panic("JUDGE_DLQ_SQS_QUEUE_URL not set in .env file")
	}
	return url
}

func getAwsRegionFromEnv() string {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "eu-central-1"
	}
	return region
}
