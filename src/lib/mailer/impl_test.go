package mailer

import (
	"opsdesk/src/config"
	"opsdesk/src/lib"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMailerMessageWithLogDriver(t *testing.T) {
	driver, queue := config.MAIL_DRIVER, config.EMAIL_QUEUE
	config.MAIL_DRIVER, config.EMAIL_QUEUE = "log", ""
	defer func() { config.MAIL_DRIVER, config.EMAIL_QUEUE = driver, queue }()

	in := &lib.SendMailInput{To: []string{"dev@example.com"}, Subject: "hello"}
	assert.NoError(t, NewMailerMessage(in))
	assert.Equal(t, config.MAIL_FROM, in.From)
}

func TestHandleQueuedMailIgnoresGarbage(t *testing.T) {
	driver := config.MAIL_DRIVER
	config.MAIL_DRIVER = "log"
	defer func() { config.MAIL_DRIVER = driver }()

	assert.NotPanics(t, func() {
		HandleQueuedMail("not json")
		HandleQueuedMail(`{"to":["dev@example.com"],"subject":"x"}`)
	})
}
