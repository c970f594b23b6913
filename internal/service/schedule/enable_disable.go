package schedule

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/scheduler"
	schedulertypes "github.com/aws/aws-sdk-go-v2/service/scheduler/types"

	"ec2sched/internal/service/common"
)

// 一括更新時の同時実行数
const maxParallelUpdates = 5

// EnableSchedule は単一のスケジュールを有効化する
func EnableSchedule(ctx context.Context, eventBridgeClient EventBridgeAPI, schedulerClient SchedulerAPI, name string) error {
	return setScheduleEnabled(ctx, eventBridgeClient, schedulerClient, name, true)
}

// DisableSchedule は単一のスケジュールを無効化する
func DisableSchedule(ctx context.Context, eventBridgeClient EventBridgeAPI, schedulerClient SchedulerAPI, name string) error {
	return setScheduleEnabled(ctx, eventBridgeClient, schedulerClient, name, false)
}

func setScheduleEnabled(ctx context.Context, eventBridgeClient EventBridgeAPI, schedulerClient SchedulerAPI, name string, enabled bool) error {
	// スケジュールタイプの判別
	scheduleType, err := detectScheduleType(ctx, eventBridgeClient, schedulerClient, name)
	if err != nil {
		return err
	}

	s := Schedule{Name: name, Type: scheduleType}
	if err := updateState(ctx, eventBridgeClient, schedulerClient, s, enabled); err != nil {
		if enabled {
			return fmt.Errorf(common.EnableErrorFormat, common.ErrorIcon, name, err)
		}
		return fmt.Errorf(common.DisableErrorFormat, common.ErrorIcon, name, err)
	}
	return nil
}

// EnableSchedulesWithFilter はフィルターにマッチする全スケジュールを有効化する
func EnableSchedulesWithFilter(ctx context.Context, eventBridgeClient EventBridgeAPI, schedulerClient SchedulerAPI, filter string) (int, error) {
	return setStateWithFilter(ctx, eventBridgeClient, schedulerClient, filter, true)
}

// DisableSchedulesWithFilter はフィルターにマッチする全スケジュールを無効化する
func DisableSchedulesWithFilter(ctx context.Context, eventBridgeClient EventBridgeAPI, schedulerClient SchedulerAPI, filter string) (int, error) {
	return setStateWithFilter(ctx, eventBridgeClient, schedulerClient, filter, false)
}

func setStateWithFilter(ctx context.Context, eventBridgeClient EventBridgeAPI, schedulerClient SchedulerAPI, filter string, enabled bool) (int, error) {
	fmt.Printf("フィルター '%s' にマッチするスケジュールを検索中...\n", filter)

	schedules, err := ListSchedules(ctx, eventBridgeClient, schedulerClient, ListOptions{Type: "all"})
	if err != nil {
		return 0, err
	}

	// 状態の変更が必要なものだけを対象にする
	var targets []Schedule
	for _, s := range schedules {
		if !common.MatchPattern(s.Name, filter) {
			continue
		}
		if isEnabledState(s.State) != enabled {
			targets = append(targets, s)
		}
	}

	executor := common.NewParallelExecutor(maxParallelUpdates)
	var mu sync.Mutex
	results := make([]common.ProcessResult, 0, len(targets))

	for _, s := range targets {
		s := s
		executor.Execute(func() {
			err := updateState(ctx, eventBridgeClient, schedulerClient, s, enabled)
			mu.Lock()
			results = append(results, common.ProcessResult{Item: s.Name, Success: err == nil, Error: err})
			mu.Unlock()
		})
	}
	executor.Wait()

	for _, r := range results {
		if r.Error != nil {
			fmt.Printf("  %s  %s の更新に失敗: %v\n", common.WarningIcon, r.Item, r.Error)
		}
	}

	successCount, failCount := common.CollectResults(results)
	verb := "有効化"
	if !enabled {
		verb = "無効化"
	}
	fmt.Printf("\n%s %d 個のスケジュールを%sしました\n", common.SuccessIcon, successCount, verb)
	if failCount > 0 {
		return successCount, fmt.Errorf("%d 個のスケジュールの%sに失敗しました", failCount, verb)
	}
	return successCount, nil
}

func isEnabledState(state string) bool {
	return state == "ENABLED" || state == "ENABLED_WITH_ALL_CLOUDTRAIL_MANAGEMENT_EVENTS"
}

func updateState(ctx context.Context, eventBridgeClient EventBridgeAPI, schedulerClient SchedulerAPI, s Schedule, enabled bool) error {
	if s.Type == TypeRule {
		return setRuleState(ctx, eventBridgeClient, s.Name, enabled)
	}
	return setSchedulerState(ctx, schedulerClient, s.Name, s.GroupName, enabled)
}

// setRuleState はEventBridge Ruleを有効化/無効化する
func setRuleState(ctx context.Context, client EventBridgeAPI, name string, enabled bool) error {
	if enabled {
		fmt.Printf("  ✓ %s (Rule) を有効化中...\n", name)
		_, err := client.EnableRule(ctx, &eventbridge.EnableRuleInput{Name: aws.String(name)})
		return err
	}
	fmt.Printf("  ✓ %s (Rule) を無効化中...\n", name)
	_, err := client.DisableRule(ctx, &eventbridge.DisableRuleInput{Name: aws.String(name)})
	return err
}

// setSchedulerState はEventBridge Schedulerを有効化/無効化する
// UpdateScheduleは全項目の置き換えなので現在の設定を引き継ぐ
func setSchedulerState(ctx context.Context, client SchedulerAPI, name, groupName string, enabled bool) error {
	state := schedulertypes.ScheduleStateEnabled
	label := "有効化"
	if !enabled {
		state = schedulertypes.ScheduleStateDisabled
		label = "無効化"
	}
	fmt.Printf("  ✓ %s (Scheduler) を%s中...\n", name, label)

	getInput := &scheduler.GetScheduleInput{Name: aws.String(name)}
	if groupName != "" {
		getInput.GroupName = aws.String(groupName)
	}
	current, err := client.GetSchedule(ctx, getInput)
	if err != nil {
		return err
	}

	_, err = client.UpdateSchedule(ctx, &scheduler.UpdateScheduleInput{
		Name:                       aws.String(name),
		GroupName:                  current.GroupName,
		ScheduleExpression:         current.ScheduleExpression,
		ScheduleExpressionTimezone: current.ScheduleExpressionTimezone,
		StartDate:                  current.StartDate,
		EndDate:                    current.EndDate,
		Description:                current.Description,
		ActionAfterCompletion:      current.ActionAfterCompletion,
		KmsKeyArn:                  current.KmsKeyArn,
		FlexibleTimeWindow:         current.FlexibleTimeWindow,
		Target:                     current.Target,
		State:                      state,
	})
	return err
}

// detectScheduleType はスケジュールのタイプを自動判別する
func detectScheduleType(ctx context.Context, eventBridgeClient EventBridgeAPI, schedulerClient SchedulerAPI, name string) (string, error) {
	// 並列でチェック
	type result struct {
		scheduleType string
		err          error
	}

	ch := make(chan result, 2)

	go func() {
		_, err := eventBridgeClient.DescribeRule(ctx, &eventbridge.DescribeRuleInput{Name: aws.String(name)})
		ch <- result{TypeRule, err}
	}()

	go func() {
		_, err := schedulerClient.GetSchedule(ctx, &scheduler.GetScheduleInput{Name: aws.String(name)})
		ch <- result{TypeScheduler, err}
	}()

	found := ""
	for i := 0; i < 2; i++ {
		res := <-ch
		if res.err == nil && (found == "" || res.scheduleType == TypeScheduler) {
			found = res.scheduleType
		}
	}
	if found == "" {
		return "", fmt.Errorf("スケジュール '%s' が見つかりません", name)
	}
	return found, nil
}
