package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"talkone_server/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/sirupsen/logrus"
)

// sqsAPI is the slice of the SQS client the dispatcher uses
type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSDispatcher delivers match-processing tasks through an SQS queue.
// DelaySeconds provides the delayed re-invocation the retry controller
// needs; SQS redelivery after a visibility timeout covers transient
// processing faults. Delivery is at-least-once, which the engine's
// status re-check tolerates.
type SQSDispatcher struct {
	Client   sqsAPI
	QueueURL string
	Logger   *logrus.Logger
}

// InitializeSQSClient initializes the SQS client
func InitializeSQSClient() *sqs.Client {
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	return sqs.NewFromConfig(cfg)
}

// EnqueueProcess schedules one processing invocation after the delay
func (d *SQSDispatcher) EnqueueProcess(ctx context.Context, task models.ProcessTask, delay time.Duration) error {
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal process task: %w", err)
	}

	_, err = d.Client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:     aws.String(d.QueueURL),
		MessageBody:  aws.String(string(body)),
		DelaySeconds: int32(delay / time.Second),
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue process task: %w", err)
	}
	return nil
}

// Run consumes process tasks until the context is cancelled. A message
// is deleted only after the handler returns nil; a handler error leaves
// it to reappear after the visibility timeout.
func (d *SQSDispatcher) Run(ctx context.Context, handler func(ctx context.Context, task models.ProcessTask) error) {
	d.Logger.WithField("queueUrl", d.QueueURL).Info("match worker started")

	for {
		if ctx.Err() != nil {
			d.Logger.Info("match worker stopped")
			return
		}

		output, err := d.Client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(d.QueueURL),
			MaxNumberOfMessages: 5,
			WaitTimeSeconds:     20,
		})
		if err != nil {
			if ctx.Err() != nil {
				d.Logger.Info("match worker stopped")
				return
			}
			d.Logger.WithError(err).Error("failed to receive process tasks")
			time.Sleep(time.Second)
			continue
		}

		for _, message := range output.Messages {
			d.handleMessage(ctx, message, handler)
		}
	}
}

func (d *SQSDispatcher) handleMessage(ctx context.Context, message types.Message, handler func(ctx context.Context, task models.ProcessTask) error) {
	var task models.ProcessTask
	if err := json.Unmarshal([]byte(aws.ToString(message.Body)), &task); err != nil || task.RequestID == "" {
		// Unparseable task; redelivery cannot fix it
		d.Logger.WithField("body", aws.ToString(message.Body)).Error("dropping malformed process task")
		d.deleteMessage(ctx, message)
		return
	}

	if err := handler(ctx, task); err != nil {
		// Leave the message for redelivery
		d.Logger.WithFields(logrus.Fields{
			"requestId": task.RequestID,
		}).WithError(err).Warn("process task failed, will be redelivered")
		return
	}

	d.deleteMessage(ctx, message)
}

func (d *SQSDispatcher) deleteMessage(ctx context.Context, message types.Message) {
	_, err := d.Client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(d.QueueURL),
		ReceiptHandle: message.ReceiptHandle,
	})
	if err != nil {
		d.Logger.WithError(err).Error("failed to delete process task")
	}
}
