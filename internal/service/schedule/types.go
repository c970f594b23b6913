package schedule

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/scheduler"
)

// スケジュールの種類
const (
	TypeRule      = "rule"
	TypeScheduler = "scheduler"
)

// Schedule はスケジュール情報を表す構造体
type Schedule struct {
	Name       string // スケジュール名
	Type       string // "rule" or "scheduler"
	GroupName  string // スケジュールグループ（schedulerのみ）
	Expression string // cron式やrate式
	State      string // "ENABLED" or "DISABLED"
	Target     string // ターゲットの簡潔な表現
	Arn        string // リソースARN

	// ターゲットに渡されるペイロードをコントローラーの形式で解釈した結果
	Action       string
	InstanceID   string
	PayloadError string
}

// ListOptions はスケジュール一覧取得のオプション
type ListOptions struct {
	Type   string // "all", "rule", "scheduler"
	Target string // ターゲット表現に対するフィルター（例: "Lambda:ec2-scheduler*"）
}

// SchedulerAPI はEventBridge Schedulerクライアントのうち使用するメソッド
type SchedulerAPI interface {
	ListSchedules(ctx context.Context, params *scheduler.ListSchedulesInput, optFns ...func(*scheduler.Options)) (*scheduler.ListSchedulesOutput, error)
	GetSchedule(ctx context.Context, params *scheduler.GetScheduleInput, optFns ...func(*scheduler.Options)) (*scheduler.GetScheduleOutput, error)
	UpdateSchedule(ctx context.Context, params *scheduler.UpdateScheduleInput, optFns ...func(*scheduler.Options)) (*scheduler.UpdateScheduleOutput, error)
}

// EventBridgeAPI はEventBridgeクライアントのうち使用するメソッド
type EventBridgeAPI interface {
	ListRules(ctx context.Context, params *eventbridge.ListRulesInput, optFns ...func(*eventbridge.Options)) (*eventbridge.ListRulesOutput, error)
	ListTargetsByRule(ctx context.Context, params *eventbridge.ListTargetsByRuleInput, optFns ...func(*eventbridge.Options)) (*eventbridge.ListTargetsByRuleOutput, error)
	DescribeRule(ctx context.Context, params *eventbridge.DescribeRuleInput, optFns ...func(*eventbridge.Options)) (*eventbridge.DescribeRuleOutput, error)
	EnableRule(ctx context.Context, params *eventbridge.EnableRuleInput, optFns ...func(*eventbridge.Options)) (*eventbridge.EnableRuleOutput, error)
	DisableRule(ctx context.Context, params *eventbridge.DisableRuleInput, optFns ...func(*eventbridge.Options)) (*eventbridge.DisableRuleOutput, error)
}
