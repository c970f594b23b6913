package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ec2sched/internal/controller"
)

func TestWriteResultJSONMatchesLambdaResponse(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResultJSON(&buf, controller.Result{StatusCode: 200, Message: "Started instance i-1"}))

	assert.JSONEq(t, `{"statusCode":200,"body":"Started instance i-1"}`, buf.String())
}

func TestResultError(t *testing.T) {
	assert.NoError(t, resultError(controller.Result{StatusCode: 200}))
	assert.EqualError(t, resultError(controller.Result{StatusCode: 400, Message: "Invalid request: instance_id is required"}),
		"❌ [400] Invalid request: instance_id is required")
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"invoke"},
		{"ec2", "start"},
		{"ec2", "stop"},
		{"ec2", "ls"},
		{"schedule", "ls"},
		{"schedule", "enable"},
		{"schedule", "disable"},
		{"version"},
	} {
		found, _, err := RootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], found.Name())
	}
}

func TestVersionSkipsAwsSetup(t *testing.T) {
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { RootCmd.SetArgs(nil); RootCmd.SetOut(nil) })

	require.NoError(t, RootCmd.Execute())
	assert.Equal(t, "ec2sched version dev\n", out.String())
	assert.Nil(t, clients)
}
