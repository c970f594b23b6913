package aws

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
)

func TestClientsAreLazilyCreatedOnce(t *testing.T) {
	clients := NewClientsFromConfig(aws.Config{Region: "ap-northeast-1"})

	assert.Nil(t, clients.ec2)
	first := clients.Ec2()
	assert.Same(t, first, clients.Ec2())

	assert.Same(t, clients.Scheduler(), clients.Scheduler())
	assert.Same(t, clients.EventBridge(), clients.EventBridge())
	assert.Equal(t, "ap-northeast-1", clients.Config().Region)
}
