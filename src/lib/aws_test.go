package lib

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArnFor(t *testing.T) {
	t.Setenv("AWS_REGION", "ap-southeast-1")
	t.Setenv("AWS_ACCOUNT_ID", "123456789012")

	assert.Equal(t, "arn:aws:sns:ap-southeast-1:123456789012:BugEvents", GetTopicArn("BugEvents"))
	assert.Equal(t, "arn:aws:sns:us-east-1:1:x", GetTopicArn("arn:aws:sns:us-east-1:1:x"))
}
