package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	eventbridgetypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/aws-sdk-go-v2/service/scheduler"
	schedulertypes "github.com/aws/aws-sdk-go-v2/service/scheduler/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lambdaArn = "arn:aws:lambda:ap-northeast-1:123456789012:function:ec2-scheduler"

type fakeScheduler struct {
	mu        sync.Mutex
	schedules map[string]*scheduler.GetScheduleOutput
	updates   []*scheduler.UpdateScheduleInput
}

func (f *fakeScheduler) ListSchedules(_ context.Context, _ *scheduler.ListSchedulesInput, _ ...func(*scheduler.Options)) (*scheduler.ListSchedulesOutput, error) {
	out := &scheduler.ListSchedulesOutput{}
	for _, name := range []string{"dev-web-start", "dev-web-stop", "broken"} {
		if s, ok := f.schedules[name]; ok {
			out.Schedules = append(out.Schedules, schedulertypes.ScheduleSummary{
				Name:      s.Name,
				GroupName: s.GroupName,
				Arn:       s.Arn,
				State:     s.State,
			})
		}
	}
	return out, nil
}

func (f *fakeScheduler) GetSchedule(_ context.Context, params *scheduler.GetScheduleInput, _ ...func(*scheduler.Options)) (*scheduler.GetScheduleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[aws.ToString(params.Name)]
	if !ok {
		return nil, errors.New("ResourceNotFoundException")
	}
	return s, nil
}

func (f *fakeScheduler) UpdateSchedule(_ context.Context, params *scheduler.UpdateScheduleInput, _ ...func(*scheduler.Options)) (*scheduler.UpdateScheduleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, params)
	return &scheduler.UpdateScheduleOutput{}, nil
}

type fakeEventBridge struct {
	mu       sync.Mutex
	enabled  []string
	disabled []string
}

func (f *fakeEventBridge) ListRules(_ context.Context, _ *eventbridge.ListRulesInput, _ ...func(*eventbridge.Options)) (*eventbridge.ListRulesOutput, error) {
	return &eventbridge.ListRulesOutput{Rules: []eventbridgetypes.Rule{
		{Name: aws.String("dev-db-stop"), ScheduleExpression: aws.String("cron(0 10 ? * MON-FRI *)"), State: eventbridgetypes.RuleStateEnabled},
		{Name: aws.String("on-object-created"), EventPattern: aws.String(`{"source":["aws.s3"]}`)},
	}}, nil
}

func (f *fakeEventBridge) ListTargetsByRule(_ context.Context, _ *eventbridge.ListTargetsByRuleInput, _ ...func(*eventbridge.Options)) (*eventbridge.ListTargetsByRuleOutput, error) {
	return &eventbridge.ListTargetsByRuleOutput{Targets: []eventbridgetypes.Target{
		{Arn: aws.String(lambdaArn), Input: aws.String(`{"action":"stop","instance_id":"i-0db"}`)},
	}}, nil
}

func (f *fakeEventBridge) DescribeRule(_ context.Context, params *eventbridge.DescribeRuleInput, _ ...func(*eventbridge.Options)) (*eventbridge.DescribeRuleOutput, error) {
	if aws.ToString(params.Name) != "dev-db-stop" {
		return nil, errors.New("ResourceNotFoundException")
	}
	return &eventbridge.DescribeRuleOutput{Name: params.Name}, nil
}

func (f *fakeEventBridge) EnableRule(_ context.Context, params *eventbridge.EnableRuleInput, _ ...func(*eventbridge.Options)) (*eventbridge.EnableRuleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled = append(f.enabled, aws.ToString(params.Name))
	return &eventbridge.EnableRuleOutput{}, nil
}

func (f *fakeEventBridge) DisableRule(_ context.Context, params *eventbridge.DisableRuleInput, _ ...func(*eventbridge.Options)) (*eventbridge.DisableRuleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disabled = append(f.disabled, aws.ToString(params.Name))
	return &eventbridge.DisableRuleOutput{}, nil
}

func newSchedule(name, input string, state schedulertypes.ScheduleState) *scheduler.GetScheduleOutput {
	return &scheduler.GetScheduleOutput{
		Name:                       aws.String(name),
		GroupName:                  aws.String("default"),
		Arn:                        aws.String("arn:aws:scheduler:ap-northeast-1:123456789012:schedule/default/" + name),
		ScheduleExpression:         aws.String("cron(0 9 ? * MON-FRI *)"),
		ScheduleExpressionTimezone: aws.String("Asia/Tokyo"),
		State:                      state,
		FlexibleTimeWindow:         &schedulertypes.FlexibleTimeWindow{Mode: schedulertypes.FlexibleTimeWindowModeOff},
		Target: &schedulertypes.Target{
			Arn:     aws.String(lambdaArn),
			RoleArn: aws.String("arn:aws:iam::123456789012:role/scheduler"),
			Input:   aws.String(input),
		},
	}
}

func newFakes() (*fakeEventBridge, *fakeScheduler) {
	return &fakeEventBridge{}, &fakeScheduler{schedules: map[string]*scheduler.GetScheduleOutput{
		"dev-web-start": newSchedule("dev-web-start", `{"action":"start","instance_id":"i-0web"}`, schedulertypes.ScheduleStateEnabled),
		"dev-web-stop":  newSchedule("dev-web-stop", `{"action":"stop","instance_id":"i-0web"}`, schedulertypes.ScheduleStateEnabled),
		"broken":        newSchedule("broken", `{"action":"reboot","instance_id":"i-0web"}`, schedulertypes.ScheduleStateDisabled),
	}}
}

func TestListSchedulesDecodesPayloads(t *testing.T) {
	eb, sch := newFakes()

	schedules, err := ListSchedules(context.Background(), eb, sch, ListOptions{Type: "all"})
	require.NoError(t, err)
	require.Len(t, schedules, 4)

	rule := schedules[0]
	assert.Equal(t, TypeRule, rule.Type)
	assert.Equal(t, "dev-db-stop", rule.Name)
	assert.Equal(t, "Lambda:ec2-scheduler", rule.Target)
	assert.Equal(t, "stop", rule.Action)
	assert.Equal(t, "i-0db", rule.InstanceID)

	start := schedules[1]
	assert.Equal(t, TypeScheduler, start.Type)
	assert.Equal(t, "cron(0 9 ? * MON-FRI *) [Asia/Tokyo]", start.Expression)
	assert.Equal(t, "start", start.Action)
	assert.Empty(t, start.PayloadError)

	broken := schedules[3]
	assert.Empty(t, broken.Action)
	assert.Contains(t, broken.PayloadError, "invalid action")
	assert.Equal(t, "⚠️ "+broken.PayloadError, formatPayload(broken))
}

func TestListSchedulesFilters(t *testing.T) {
	eb, sch := newFakes()

	schedules, err := ListSchedules(context.Background(), eb, sch, ListOptions{Type: TypeScheduler, Target: "Lambda:ec2-*"})
	require.NoError(t, err)
	assert.Len(t, schedules, 3)

	schedules, err = ListSchedules(context.Background(), eb, sch, ListOptions{Type: TypeRule, Target: "SQS:*"})
	require.NoError(t, err)
	assert.Empty(t, schedules)
}

func TestDisableSchedulerKeepsTarget(t *testing.T) {
	eb, sch := newFakes()

	require.NoError(t, DisableSchedule(context.Background(), eb, sch, "dev-web-start"))

	require.Len(t, sch.updates, 1)
	update := sch.updates[0]
	assert.Equal(t, schedulertypes.ScheduleStateDisabled, update.State)
	assert.Equal(t, `{"action":"start","instance_id":"i-0web"}`, aws.ToString(update.Target.Input))
	assert.Equal(t, "Asia/Tokyo", aws.ToString(update.ScheduleExpressionTimezone))
	assert.Equal(t, "default", aws.ToString(update.GroupName))
}

func TestEnableRule(t *testing.T) {
	eb, sch := newFakes()

	require.NoError(t, EnableSchedule(context.Background(), eb, sch, "dev-db-stop"))
	assert.Equal(t, []string{"dev-db-stop"}, eb.enabled)

	err := EnableSchedule(context.Background(), eb, sch, "missing")
	assert.EqualError(t, err, "スケジュール 'missing' が見つかりません")
}

func TestDisableSchedulesWithFilterOnlyTouchesEnabled(t *testing.T) {
	eb, sch := newFakes()

	count, err := DisableSchedulesWithFilter(context.Background(), eb, sch, "dev-*")
	require.NoError(t, err)

	assert.Equal(t, 3, count)
	assert.Equal(t, []string{"dev-db-stop"}, eb.disabled)
	assert.Len(t, sch.updates, 2)
}

func TestEnableSchedulesWithFilter(t *testing.T) {
	eb, sch := newFakes()

	count, err := EnableSchedulesWithFilter(context.Background(), eb, sch, "broken")
	require.NoError(t, err)

	assert.Equal(t, 1, count)
	require.Len(t, sch.updates, 1)
	assert.Equal(t, schedulertypes.ScheduleStateEnabled, sch.updates[0].State)
}
