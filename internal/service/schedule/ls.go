package schedule

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	eventbridgetypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/aws-sdk-go-v2/service/scheduler"
	schedulertypes "github.com/aws/aws-sdk-go-v2/service/scheduler/types"

	"ec2sched/internal/controller"
	"ec2sched/internal/service/common"
)

// ListSchedules はスケジュール一覧を取得する
func ListSchedules(ctx context.Context, eventBridgeClient EventBridgeAPI, schedulerClient SchedulerAPI, opts ListOptions) ([]Schedule, error) {
	var schedules []Schedule

	if opts.Type == "" {
		opts.Type = "all"
	}

	// EventBridge Rulesを取得
	if opts.Type == "all" || opts.Type == TypeRule {
		rules, err := listEventBridgeRules(ctx, eventBridgeClient)
		if err != nil {
			return nil, fmt.Errorf("EventBridge Rules取得エラー: %w", err)
		}
		schedules = append(schedules, rules...)
	}

	// EventBridge Schedulerを取得
	if opts.Type == "all" || opts.Type == TypeScheduler {
		schedulerList, err := listEventBridgeSchedulers(ctx, schedulerClient)
		if err != nil {
			return nil, fmt.Errorf("EventBridge Scheduler取得エラー: %w", err)
		}
		schedules = append(schedules, schedulerList...)
	}

	if opts.Target == "" {
		return schedules, nil
	}

	filtered := schedules[:0]
	for _, s := range schedules {
		if common.MatchPattern(s.Target, opts.Target) {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// listEventBridgeRules はEventBridge Rules（スケジュールタイプ）を取得
func listEventBridgeRules(ctx context.Context, client EventBridgeAPI) ([]Schedule, error) {
	var schedules []Schedule

	listInput := &eventbridge.ListRulesInput{}
	for {
		listOutput, err := client.ListRules(ctx, listInput)
		if err != nil {
			return nil, err
		}

		for _, rule := range listOutput.Rules {
			// スケジュール式を持つルールのみ対象
			if rule.ScheduleExpression == nil || *rule.ScheduleExpression == "" {
				continue
			}

			// ターゲット情報を取得
			targetsOutput, err := client.ListTargetsByRule(ctx, &eventbridge.ListTargetsByRuleInput{
				Rule: rule.Name,
			})
			if err != nil {
				return nil, fmt.Errorf("ルール %s のターゲット取得エラー: %w", aws.ToString(rule.Name), err)
			}

			s := Schedule{
				Name:       aws.ToString(rule.Name),
				Type:       TypeRule,
				Expression: aws.ToString(rule.ScheduleExpression),
				State:      string(rule.State),
				Target:     formatTargets(targetsOutput.Targets),
				Arn:        aws.ToString(rule.Arn),
			}
			applyPayload(&s, ruleInput(targetsOutput.Targets))
			schedules = append(schedules, s)
		}

		if listOutput.NextToken == nil {
			break
		}
		listInput.NextToken = listOutput.NextToken
	}

	return schedules, nil
}

// listEventBridgeSchedulers はEventBridge Schedulerを取得
func listEventBridgeSchedulers(ctx context.Context, client SchedulerAPI) ([]Schedule, error) {
	var schedules []Schedule

	listInput := &scheduler.ListSchedulesInput{}
	for {
		listOutput, err := client.ListSchedules(ctx, listInput)
		if err != nil {
			return nil, err
		}

		for _, sched := range listOutput.Schedules {
			// 詳細情報を取得
			getOutput, err := client.GetSchedule(ctx, &scheduler.GetScheduleInput{
				Name:      sched.Name,
				GroupName: sched.GroupName,
			})
			if err != nil {
				return nil, fmt.Errorf("スケジュール %s の詳細取得エラー: %w", aws.ToString(sched.Name), err)
			}

			s := Schedule{
				Name:       aws.ToString(sched.Name),
				Type:       TypeScheduler,
				GroupName:  aws.ToString(sched.GroupName),
				Expression: formatScheduleExpression(getOutput),
				State:      string(getOutput.State),
				Target:     formatSchedulerTarget(getOutput.Target),
				Arn:        aws.ToString(sched.Arn),
			}
			if getOutput.Target != nil {
				applyPayload(&s, aws.ToString(getOutput.Target.Input))
			}
			schedules = append(schedules, s)
		}

		if listOutput.NextToken == nil {
			break
		}
		listInput.NextToken = listOutput.NextToken
	}

	return schedules, nil
}

// ruleInput はルールのターゲットのうち最初に見つかった固定入力を返す
func ruleInput(targets []eventbridgetypes.Target) string {
	for _, target := range targets {
		if target.Input != nil && *target.Input != "" {
			return *target.Input
		}
	}
	return ""
}

// applyPayload はターゲットへの入力をコントローラーと同じ検証にかける
func applyPayload(s *Schedule, input string) {
	if input == "" {
		return
	}
	req, err := controller.ParseRequest([]byte(input))
	if err != nil {
		s.PayloadError = err.Error()
		return
	}
	s.Action = string(req.Action())
	s.InstanceID = req.InstanceID()
}

// formatTargets はEventBridge Rulesのターゲットを簡潔に表現
func formatTargets(targets []eventbridgetypes.Target) string {
	if len(targets) == 0 {
		return "なし"
	}

	var targetStrs []string
	for _, target := range targets {
		if target.Arn != nil {
			targetStrs = append(targetStrs, formatArn(*target.Arn))
		}
	}

	return strings.Join(targetStrs, ", ")
}

// formatSchedulerTarget はEventBridge Schedulerのターゲットを簡潔に表現
func formatSchedulerTarget(target *schedulertypes.Target) string {
	if target == nil || target.Arn == nil {
		return "なし"
	}
	return formatArn(*target.Arn)
}

// formatArn はARNからサービスとリソース名を抽出して短く表現する
func formatArn(arn string) string {
	arnParts := strings.SplitN(arn, ":", 6)
	if len(arnParts) < 6 {
		return arn
	}
	service := arnParts[2]
	resourceType := arnParts[5]

	// サービス別の表現
	switch service {
	case "lambda":
		if strings.HasPrefix(resourceType, "function:") {
			return fmt.Sprintf("Lambda:%s", strings.TrimPrefix(resourceType, "function:"))
		}
	case "states":
		return fmt.Sprintf("StepFunc:%s", resourceType)
	case "sns":
		return fmt.Sprintf("SNS:%s", resourceType)
	case "sqs":
		return fmt.Sprintf("SQS:%s", resourceType)
	case "events":
		return fmt.Sprintf("EventBus:%s", resourceType)
	}

	return fmt.Sprintf("%s:%s", service, resourceType)
}

// formatScheduleExpression はEventBridge Schedulerのスケジュール式を構築
func formatScheduleExpression(schedule *scheduler.GetScheduleOutput) string {
	if schedule.ScheduleExpression != nil {
		expr := *schedule.ScheduleExpression
		if tz := aws.ToString(schedule.ScheduleExpressionTimezone); tz != "" {
			expr = fmt.Sprintf("%s [%s]", expr, tz)
		}
		return expr
	}

	// FlexibleTimeWindowがある場合
	if schedule.FlexibleTimeWindow != nil && schedule.FlexibleTimeWindow.Mode == schedulertypes.FlexibleTimeWindowModeFlexible {
		if schedule.FlexibleTimeWindow.MaximumWindowInMinutes != nil {
			return fmt.Sprintf("flexible(%d min)", *schedule.FlexibleTimeWindow.MaximumWindowInMinutes)
		}
	}

	return "不明"
}

// DisplaySchedules はスケジュール一覧を表示する
func DisplaySchedules(schedules []Schedule) {
	fmt.Printf("\n📅 スケジュール一覧\n")

	if len(schedules) == 0 {
		fmt.Println(common.FormatEmptyMessage("スケジュール"))
		return
	}

	columns := []common.TableColumn{
		{Header: "Name"},
		{Header: "Schedule"},
		{Header: "State"},
		{Header: "Target"},
		{Header: "Payload"},
	}

	// EventBridge RulesとSchedulerでデータを分離
	var ruleData [][]string
	var schedulerData [][]string
	invalid := 0

	for _, s := range schedules {
		// Stateに絵文字を付ける
		stateWithEmoji := s.State
		switch s.State {
		case "ENABLED":
			stateWithEmoji = "🟢 " + s.State
		case "DISABLED":
			stateWithEmoji = "🔴 " + s.State
		}

		if s.PayloadError != "" {
			invalid++
		}

		row := []string{s.Name, s.Expression, stateWithEmoji, s.Target, formatPayload(s)}
		if s.Type == TypeRule {
			ruleData = append(ruleData, row)
		} else {
			schedulerData = append(schedulerData, row)
		}
	}

	if len(ruleData) > 0 {
		common.PrintTable("EventBridge Rules (Schedule)", columns, ruleData)
	}

	if len(schedulerData) > 0 {
		if len(ruleData) > 0 {
			fmt.Println()
		}
		common.PrintTable("EventBridge Scheduler", columns, schedulerData)
	}

	fmt.Printf("\n合計: %d個のスケジュール (Rules: %d, Scheduler: %d)\n", len(schedules), len(ruleData), len(schedulerData))
	if invalid > 0 {
		fmt.Printf("%s %d個のスケジュールはコントローラーが受け付けないペイロードを送信します\n", common.WarningIcon, invalid)
	}
}

// formatPayload はペイロードの解釈結果を1セルに収める
func formatPayload(s Schedule) string {
	switch {
	case s.PayloadError != "":
		return fmt.Sprintf("%s %s", common.WarningIcon, s.PayloadError)
	case s.Action != "":
		return fmt.Sprintf("%s %s", s.Action, s.InstanceID)
	default:
		return "-"
	}
}
