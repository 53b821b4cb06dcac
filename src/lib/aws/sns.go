package aws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"opsdesk/src/lib"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

var (
	errSESUnavailable = errors.New("ses client unavailable")
	errSNSUnavailable = errors.New("sns client unavailable")
)

type SNSPublisher struct {
	Name  string
	inner *sns.Client
}

func NewSNSPublisher(topic string) *SNSPublisher {
	inner := lib.AWSGetSNSClient()
	if inner == nil {
		return nil
	}
	return &SNSPublisher{Name: topic, inner: inner}
}

// Publish sends payload as JSON with an event_type attribute for subscription filters.
func (s *SNSPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	if s == nil || s.inner == nil {
		return errSNSUnavailable
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	out, err := s.inner.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(lib.GetTopicArn(s.Name)),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(eventType)},
		},
	})
	if err != nil {
		log.Printf("[%s] Error publishing %s: %s\n", s.Name, eventType, err.Error())
		return err
	}
	log.Printf("[%s] Published %s: %s\n", s.Name, eventType, aws.ToString(out.MessageId))
	return nil
}
