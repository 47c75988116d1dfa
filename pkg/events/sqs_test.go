package events

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
}

func sampleEvent() Event {
	return Event{ConnectionID: "blog", Platform: "wordpress", Slug: "hello-world", RemoteID: "101"}
}

func TestSQSSinkPublishSuccess(t *testing.T) {
	client := &fakeSQSClient{}
	sink := &sqsSink{id: "queue", queueURL: "https://example.com/queue", client: client, log: logger.NopLogger{}}

	if err := sink.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.QueueUrl); got != "https://example.com/queue" {
		t.Fatalf("QueueUrl = %s", got)
	}
	attr, ok := client.input.MessageAttributes["connection_id"]
	if !ok || aws.ToString(attr.StringValue) != "blog" || aws.ToString(attr.DataType) != "String" {
		t.Fatalf("connection_id attribute missing or wrong: %#v", attr)
	}
	if body := aws.ToString(client.input.MessageBody); !strings.Contains(body, `"remote_id":"101"`) {
		t.Fatalf("MessageBody missing remote_id: %s", body)
	}
}

func TestSQSSinkPublishError(t *testing.T) {
	sink := &sqsSink{id: "queue", queueURL: "q", client: &fakeSQSClient{err: errors.New("boom")}, log: logger.NopLogger{}}
	if err := sink.Publish(context.Background(), sampleEvent()); err == nil {
		t.Fatalf("expected error from Publish")
	}
}
