package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ec2sched/internal/service/common"
	"ec2sched/internal/service/schedule"
)

var (
	scheduleType   string
	scheduleTarget string
	// enable/disable サブコマンド用フラグ
	enableSearch  string
	disableSearch string
)

// ScheduleCmd はscheduleコマンドを表す
var ScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "起動/停止スケジュール管理コマンド",
	Long: `コントローラーを呼び出すEventBridge RulesとEventBridge Schedulerのスケジュールを管理するためのコマンド群です。
祝日や手動運用の際に一時的にスケジュールを無効化できます。`,
}

var scheduleLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "スケジュール一覧を表示",
	Long: `EventBridge Rules（スケジュールタイプ）とEventBridge Schedulerの一覧を、
ターゲットに渡されるペイロード（action / instance_id）とともに表示します。
コントローラーが受け付けないペイロードには警告を表示します。

例:
  ` + AppName + ` schedule ls                               # 両方のスケジュールを表示
  ` + AppName + ` schedule ls --type scheduler              # EventBridge Schedulerのみ表示
  ` + AppName + ` schedule ls --target "Lambda:ec2-sched*"  # コントローラー宛てのみ表示`,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch scheduleType {
		case "all", schedule.TypeRule, schedule.TypeScheduler:
		default:
			return fmt.Errorf("%s 表示タイプは all|rule|scheduler のいずれかを指定してください", common.ErrorIcon)
		}

		schedules, err := schedule.ListSchedules(cmd.Context(), clients.EventBridge(), clients.Scheduler(), schedule.ListOptions{
			Type:   scheduleType,
			Target: scheduleTarget,
		})
		if err != nil {
			return fmt.Errorf(common.ListErrorFormat, common.ErrorIcon, "スケジュール", err)
		}

		schedule.DisplaySchedules(schedules)
		return nil
	},
	SilenceUsage: true,
}

var scheduleEnableCmd = &cobra.Command{
	Use:   "enable NAME",
	Short: "スケジュールを有効化",
	Long: `EventBridge RuleまたはEventBridge Schedulerを有効化します。

例:
  ` + AppName + ` schedule enable dev-web-start           # 単一のスケジュールを有効化
  ` + AppName + ` schedule enable --search "dev-web-*"    # dev-web-で始まる全てを有効化`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 && enableSearch == "" {
			if err := schedule.EnableSchedule(cmd.Context(), clients.EventBridge(), clients.Scheduler(), args[0]); err != nil {
				return err
			}
			fmt.Printf(common.EnableSuccessFormat+"\n", common.SuccessIcon, args[0])
			return nil
		} else if len(args) == 0 && enableSearch != "" {
			_, err := schedule.EnableSchedulesWithFilter(cmd.Context(), clients.EventBridge(), clients.Scheduler(), enableSearch)
			return err
		}
		return fmt.Errorf("スケジュール名または検索パターンのいずれか一方を指定してください")
	},
	SilenceUsage: true,
}

var scheduleDisableCmd = &cobra.Command{
	Use:   "disable NAME",
	Short: "スケジュールを無効化",
	Long: `EventBridge RuleまたはEventBridge Schedulerを無効化します。

例:
  ` + AppName + ` schedule disable dev-web-start          # 単一のスケジュールを無効化
  ` + AppName + ` schedule disable --search "dev-*"       # dev-で始まる全てを無効化`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 && disableSearch == "" {
			if err := schedule.DisableSchedule(cmd.Context(), clients.EventBridge(), clients.Scheduler(), args[0]); err != nil {
				return err
			}
			fmt.Printf(common.DisableSuccessFormat+"\n", common.SuccessIcon, args[0])
			return nil
		} else if len(args) == 0 && disableSearch != "" {
			_, err := schedule.DisableSchedulesWithFilter(cmd.Context(), clients.EventBridge(), clients.Scheduler(), disableSearch)
			return err
		}
		return fmt.Errorf("スケジュール名または検索パターンのいずれか一方を指定してください")
	},
	SilenceUsage: true,
}

func init() {
	RootCmd.AddCommand(ScheduleCmd)
	ScheduleCmd.AddCommand(scheduleLsCmd)
	ScheduleCmd.AddCommand(scheduleEnableCmd)
	ScheduleCmd.AddCommand(scheduleDisableCmd)

	// フラグ定義
	scheduleLsCmd.Flags().StringVarP(&scheduleType, "type", "t", "all", "表示タイプ (all|rule|scheduler)")
	scheduleLsCmd.Flags().StringVar(&scheduleTarget, "target", "", "ターゲットのフィルター（例: Lambda:ec2-sched*）")

	// enable / disable サブコマンドのフラグ
	scheduleEnableCmd.Flags().StringVarP(&enableSearch, "search", "s", "", "有効化するスケジュールの検索パターン")
	scheduleDisableCmd.Flags().StringVarP(&disableSearch, "search", "s", "", "無効化するスケジュールの検索パターン")
}
