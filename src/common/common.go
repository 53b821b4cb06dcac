package common

import (
	"context"
	"log"
	"opsdesk/src/config"
	awslib "opsdesk/src/lib/aws"
	"opsdesk/src/lib/mailer"
)

// SQSConsumers starts the queue listeners the API owns.
func SQSConsumers(ctx context.Context) {
	if config.EMAIL_QUEUE == "" {
		log.Println("EMAIL_QUEUE not set: mail is delivered inline")
		return
	}
	emails := awslib.NewSQSConsumer(config.EMAIL_QUEUE, mailer.HandleQueuedMail)
	emails.Listen(ctx)
}
