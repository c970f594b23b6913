package ec2

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ec2sched/internal/controller"
)

type fakeEc2 struct {
	startInput *ec2.StartInstancesInput
	stopInput  *ec2.StopInstancesInput

	startOutput *ec2.StartInstancesOutput
	stopOutput  *ec2.StopInstancesOutput
	err         error

	// DescribeInstancesが呼ばれるたびに順番に返す状態
	states   []types.InstanceStateName
	describe int
	pages    []*ec2.DescribeInstancesOutput
}

func (f *fakeEc2) StartInstances(_ context.Context, params *ec2.StartInstancesInput, _ ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error) {
	f.startInput = params
	if f.err != nil {
		return nil, f.err
	}
	return f.startOutput, nil
}

func (f *fakeEc2) StopInstances(_ context.Context, params *ec2.StopInstancesInput, _ ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error) {
	f.stopInput = params
	if f.err != nil {
		return nil, f.err
	}
	return f.stopOutput, nil
}

func (f *fakeEc2) DescribeInstances(_ context.Context, params *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.pages != nil {
		idx := 0
		if params.NextToken != nil {
			idx = len(f.pages) - 1
		}
		return f.pages[idx], nil
	}

	state := f.states[min(f.describe, len(f.states)-1)]
	f.describe++
	return &ec2.DescribeInstancesOutput{
		Reservations: []types.Reservation{{
			Instances: []types.Instance{{
				InstanceId: aws.String(params.InstanceIds[0]),
				State:      &types.InstanceState{Name: state},
			}},
		}},
	}, nil
}

func stateChange(id string, prev, cur types.InstanceStateName) []types.InstanceStateChange {
	return []types.InstanceStateChange{{
		InstanceId:    aws.String(id),
		PreviousState: &types.InstanceState{Name: prev},
		CurrentState:  &types.InstanceState{Name: cur},
	}}
}

func TestProviderStartReportsTransition(t *testing.T) {
	client := &fakeEc2{startOutput: &ec2.StartInstancesOutput{
		StartingInstances: stateChange("i-1", types.InstanceStateNameStopped, types.InstanceStateNamePending),
	}}

	transition, err := NewProvider(client, false).StartInstance(context.Background(), "i-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"i-1"}, client.startInput.InstanceIds)
	assert.False(t, aws.ToBool(client.startInput.DryRun))
	assert.Equal(t, controller.Transition{InstanceID: "i-1", PreviousState: "stopped", CurrentState: "pending"}, transition)
}

func TestProviderStopReportsTransition(t *testing.T) {
	client := &fakeEc2{stopOutput: &ec2.StopInstancesOutput{
		StoppingInstances: stateChange("i-1", types.InstanceStateNameStopped, types.InstanceStateNameStopped),
	}}

	transition, err := NewProvider(client, false).StopInstance(context.Background(), "i-1")
	require.NoError(t, err)

	assert.Equal(t, "stopped", transition.PreviousState)
	assert.Equal(t, "stopped", transition.CurrentState)
}

func TestProviderWrapsAPIErrorWithCode(t *testing.T) {
	client := &fakeEc2{err: &smithy.OperationError{
		ServiceID:     "EC2",
		OperationName: "StopInstances",
		Err:           &smithy.GenericAPIError{Code: "IncorrectInstanceState", Message: "The instance is not in a state from which it can be stopped."},
	}}

	_, err := NewProvider(client, false).StopInstance(context.Background(), "i-1")
	require.Error(t, err)

	var providerErr *controller.ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, "IncorrectInstanceState", providerErr.Code)
	assert.Equal(t, "The instance is not in a state from which it can be stopped.", providerErr.Message)
}

func TestProviderPassesThroughNonAPIError(t *testing.T) {
	client := &fakeEc2{err: context.DeadlineExceeded}

	_, err := NewProvider(client, false).StartInstance(context.Background(), "i-1")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	var providerErr *controller.ProviderError
	assert.False(t, errors.As(err, &providerErr))
}

func TestProviderDryRun(t *testing.T) {
	client := &fakeEc2{err: &smithy.GenericAPIError{Code: "DryRunOperation", Message: "Request would have succeeded, but DryRun flag is set."}}

	transition, err := NewProvider(client, true).StartInstance(context.Background(), "i-1")
	require.NoError(t, err)

	assert.True(t, transition.DryRun)
	assert.True(t, aws.ToBool(client.startInput.DryRun))
}

func TestProviderWithController(t *testing.T) {
	client := &fakeEc2{err: &smithy.GenericAPIError{Code: "UnauthorizedOperation", Message: "You are not authorized to perform this operation."}}
	c := controller.New(NewProvider(client, false), controller.Config{}, zerolog.Nop())

	result := c.Handle(context.Background(), []byte(`{"action":"start","instance_id":"i-1"}`))

	assert.Equal(t, 500, result.StatusCode)
	assert.Contains(t, result.Message, "You are not authorized to perform this operation.")
}

func TestListEc2InstancesSkipsTerminatedAndPaginates(t *testing.T) {
	client := &fakeEc2{pages: []*ec2.DescribeInstancesOutput{
		{
			NextToken: aws.String("next"),
			Reservations: []types.Reservation{{Instances: []types.Instance{
				{InstanceId: aws.String("i-1"), State: &types.InstanceState{Name: types.InstanceStateNameRunning},
					Tags: []types.Tag{{Key: aws.String("Name"), Value: aws.String("web")}}},
				{InstanceId: aws.String("i-2"), State: &types.InstanceState{Name: types.InstanceStateNameTerminated}},
			}}},
		},
		{
			Reservations: []types.Reservation{{Instances: []types.Instance{
				{InstanceId: aws.String("i-3"), State: &types.InstanceState{Name: types.InstanceStateNameStopped}},
			}}},
		},
	}}

	instances, err := ListEc2Instances(context.Background(), client)
	require.NoError(t, err)

	assert.Equal(t, []Instance{
		{InstanceId: "i-1", InstanceName: "web", State: "running"},
		{InstanceId: "i-3", InstanceName: "（名前なし）", State: "stopped"},
	}, instances)
}

func TestSelectInstanceInteractively(t *testing.T) {
	client := &fakeEc2{pages: []*ec2.DescribeInstancesOutput{{
		Reservations: []types.Reservation{{Instances: []types.Instance{
			{InstanceId: aws.String("i-1"), State: &types.InstanceState{Name: types.InstanceStateNameRunning}},
			{InstanceId: aws.String("i-2"), State: &types.InstanceState{Name: types.InstanceStateNameStopped}},
		}}},
	}}}

	id, err := SelectInstanceInteractively(context.Background(), client, strings.NewReader("2\n"))
	require.NoError(t, err)
	assert.Equal(t, "i-2", id)

	_, err = SelectInstanceInteractively(context.Background(), client, strings.NewReader("3\n"))
	assert.Error(t, err)
}

func TestWaitForState(t *testing.T) {
	client := &fakeEc2{states: []types.InstanceStateName{
		types.InstanceStateNamePending,
		types.InstanceStateNamePending,
		types.InstanceStateNameRunning,
	}}

	state, err := WaitForState(context.Background(), client, "i-1", "running", WaitOptions{
		Timeout:  time.Second,
		Interval: time.Millisecond,
		Writer:   io.Discard,
	})
	require.NoError(t, err)

	assert.Equal(t, "running", state)
	assert.Equal(t, 3, client.describe)
}

func TestWaitForStateTimeout(t *testing.T) {
	client := &fakeEc2{states: []types.InstanceStateName{types.InstanceStateNameStopping}}

	state, err := WaitForState(context.Background(), client, "i-1", "stopped", WaitOptions{
		Timeout:  20 * time.Millisecond,
		Interval: 5 * time.Millisecond,
		Writer:   io.Discard,
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "stopping", state)
}
