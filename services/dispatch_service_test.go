package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"talkone_server/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSQSClient serves queued receive batches once and records every
// send and delete.
type fakeSQSClient struct {
	mu       sync.Mutex
	sent     []*sqs.SendMessageInput
	receives [][]types.Message
	deleted  []string
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, params)
	return &sqs.SendMessageOutput{}, nil
}

func (f *fakeSQSClient) ReceiveMessage(_ context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.receives) == 0 {
		return &sqs.ReceiveMessageOutput{}, nil
	}
	batch := f.receives[0]
	f.receives = f.receives[1:]
	return &sqs.ReceiveMessageOutput{Messages: batch}, nil
}

func (f *fakeSQSClient) DeleteMessage(_ context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeSQSClient) deletedHandles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func queueMessage(receipt, body string) types.Message {
	return types.Message{
		ReceiptHandle: aws.String(receipt),
		Body:          aws.String(body),
	}
}

func newTestDispatcher(client *fakeSQSClient) *SQSDispatcher {
	return &SQSDispatcher{
		Client:   client,
		QueueURL: "https://sqs.test/match-queue",
		Logger:   testLogger(),
	}
}

func TestEnqueueProcessSetsDelay(t *testing.T) {
	client := &fakeSQSClient{}
	dispatcher := newTestDispatcher(client)

	task := models.ProcessTask{RequestID: "req-1", UserID: "alice"}
	require.NoError(t, dispatcher.EnqueueProcess(context.Background(), task, 10*time.Second))

	require.Len(t, client.sent, 1)
	assert.Equal(t, int32(10), client.sent[0].DelaySeconds)
	assert.Equal(t, dispatcher.QueueURL, aws.ToString(client.sent[0].QueueUrl))
	assert.JSONEq(t, `{"requestId":"req-1","userId":"alice"}`, aws.ToString(client.sent[0].MessageBody))
}

func TestHandleMessageDeletesAfterSuccess(t *testing.T) {
	client := &fakeSQSClient{}
	dispatcher := newTestDispatcher(client)

	var handled []string
	handler := func(_ context.Context, task models.ProcessTask) error {
		handled = append(handled, task.RequestID)
		return nil
	}

	dispatcher.handleMessage(context.Background(), queueMessage("receipt-1", `{"requestId":"req-1"}`), handler)

	assert.Equal(t, []string{"req-1"}, handled)
	assert.Equal(t, []string{"receipt-1"}, client.deletedHandles())
}

func TestHandleMessageLeavesFailedTaskForRedelivery(t *testing.T) {
	client := &fakeSQSClient{}
	dispatcher := newTestDispatcher(client)

	handler := func(context.Context, models.ProcessTask) error {
		return errors.New("store unavailable")
	}

	dispatcher.handleMessage(context.Background(), queueMessage("receipt-1", `{"requestId":"req-1"}`), handler)

	assert.Empty(t, client.deletedHandles(), "failed tasks stay on the queue for redelivery")
}

func TestHandleMessageDropsMalformedTask(t *testing.T) {
	client := &fakeSQSClient{}
	dispatcher := newTestDispatcher(client)

	called := false
	handler := func(context.Context, models.ProcessTask) error {
		called = true
		return nil
	}

	dispatcher.handleMessage(context.Background(), queueMessage("receipt-1", `not json`), handler)
	dispatcher.handleMessage(context.Background(), queueMessage("receipt-2", `{"userId":"alice"}`), handler)

	assert.False(t, called, "unparseable tasks never reach the handler")
	assert.Equal(t, []string{"receipt-1", "receipt-2"}, client.deletedHandles())
}

func TestRunDeletesOnlyHandledTasks(t *testing.T) {
	client := &fakeSQSClient{
		receives: [][]types.Message{{
			queueMessage("receipt-ok", `{"requestId":"req-1"}`),
			queueMessage("receipt-fail", `{"requestId":"req-2"}`),
		}},
	}
	dispatcher := newTestDispatcher(client)

	ctx, cancel := context.WithCancel(context.Background())
	handled := make(chan string, 2)
	done := make(chan struct{})
	go func() {
		dispatcher.Run(ctx, func(_ context.Context, task models.ProcessTask) error {
			handled <- task.RequestID
			if task.RequestID == "req-2" {
				return errors.New("transient")
			}
			return nil
		})
		close(done)
	}()

	assert.Equal(t, "req-1", <-handled)
	assert.Equal(t, "req-2", <-handled)
	cancel()
	<-done

	assert.Equal(t, []string{"receipt-ok"}, client.deletedHandles())
}
