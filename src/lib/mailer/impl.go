package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"opsdesk/src/config"
	"opsdesk/src/lib"
	awslib "opsdesk/src/lib/aws"
)

// NewMailerMessage queues input on EMAIL_QUEUE, or delivers it right away when no queue is configured.
func NewMailerMessage(input *lib.SendMailInput) error {
	if input.From == "" {
		input.From = config.MAIL_FROM
		input.FromName = "opsdesk"
	}
	if config.EMAIL_QUEUE == "" {
		return Deliver(input)
	}
	body, err := json.Marshal(input)
	if err != nil {
		return err
	}
	if err := lib.SQSProduceMessage(config.EMAIL_QUEUE, string(body)); err != nil {
		return fmt.Errorf("error sending message to queue: %s", err.Error())
	}
	return nil
}

// Deliver sends input through the configured MAIL_DRIVER.
func Deliver(input *lib.SendMailInput) error {
	switch config.MAIL_DRIVER {
	case "ses":
		return awslib.SESSendMessage(context.Background(), awslib.SESMessage(input.From, input.To, input.Subject, input.Body, input.Html))
	case "log":
		log.Printf("[mailer] to=%v subject=%q\n", input.To, input.Subject)
		return nil
	default:
		return lib.SendMail(input)
	}
}

// HandleQueuedMail is the SQS handler for EMAIL_QUEUE payloads.
func HandleQueuedMail(payload string) {
	var input lib.SendMailInput
	if err := json.Unmarshal([]byte(payload), &input); err != nil {
		log.Printf("[mailer] Error decoding queued mail: %s\n", err.Error())
		return
	}
	if err := Deliver(&input); err != nil {
		log.Printf("[mailer] Error delivering mail to %v: %s\n", input.To, err.Error())
	}
}
