package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ec2sched/internal/controller"
	"ec2sched/internal/service/common"
	ec2svc "ec2sched/internal/service/ec2"
)

var (
	ec2InstanceId  string
	ec2Wait        bool
	ec2WaitTimeout time.Duration
)

// Ec2Cmd represents the ec2 command
var Ec2Cmd = &cobra.Command{
	Use:   "ec2",
	Short: "EC2インスタンス操作コマンド",
	Long:  `EC2インスタンスを操作するためのコマンド群です。起動/停止はスケジューラーと同じ処理で行います。`,
}

var ec2StartCmd = &cobra.Command{
	Use:   "start",
	Short: "EC2インスタンスを起動するコマンド",
	Long: `EC2インスタンスを起動します。
既に起動中の場合は何もせず成功として扱います。
インスタンスIDを省略すると一覧から選択できます。

例:
  ` + AppName + ` ec2 start -i i-1234567890abcdef0
  ` + AppName + ` ec2 start -i i-1234567890abcdef0 --wait`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEc2Action(cmd, controller.ActionStart)
	},
	SilenceUsage: true,
}

var ec2StopCmd = &cobra.Command{
	Use:   "stop",
	Short: "EC2インスタンスを停止するコマンド",
	Long: `EC2インスタンスを停止します。
既に停止済みの場合は何もせず成功として扱います。
インスタンスIDを省略すると一覧から選択できます。

例:
  ` + AppName + ` ec2 stop -i i-1234567890abcdef0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEc2Action(cmd, controller.ActionStop)
	},
	SilenceUsage: true,
}

var ec2LsCmd = &cobra.Command{
	Use:   "ls",
	Short: "EC2インスタンス一覧を表示するコマンド",
	Long:  `EC2インスタンス一覧を表示します。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		instances, err := ec2svc.ListEc2Instances(cmd.Context(), clients.Ec2())
		if err != nil {
			return fmt.Errorf(common.ListErrorFormat, common.ErrorIcon, "EC2インスタンス", err)
		}
		ec2svc.DisplayInstances(instances)
		return nil
	},
	SilenceUsage: true,
}

// runEc2Action はコントローラー経由でインスタンスの起動/停止を行う
func runEc2Action(cmd *cobra.Command, action controller.Action) error {
	ctx := cmd.Context()

	instanceId := ec2InstanceId
	if instanceId == "" {
		selected, err := ec2svc.SelectInstanceInteractively(ctx, clients.Ec2(), os.Stdin)
		if err != nil {
			return err
		}
		instanceId = selected
	}

	icon, label := common.StartIcon, "起動"
	if action == controller.ActionStop {
		icon, label = common.StopIcon, "停止"
	}
	fmt.Printf("%s EC2インスタンス (%s) を%sします...\n", icon, instanceId, label)

	result := newController().HandlePayload(ctx, controller.Payload{
		Action:     string(action),
		InstanceID: instanceId,
	})
	if !result.OK() {
		if action == controller.ActionStart {
			return fmt.Errorf(common.StartErrorFormat, common.ErrorIcon, instanceId, result.Message)
		}
		return fmt.Errorf(common.StopErrorFormat, common.ErrorIcon, instanceId, result.Message)
	}
	fmt.Printf("%s %s\n", common.SuccessIcon, result.Message)

	if !ec2Wait || appConfig.DryRun {
		return nil
	}

	state, err := ec2svc.WaitForState(ctx, clients.Ec2(), instanceId, action.TargetState(), ec2svc.WaitOptions{
		Timeout: ec2WaitTimeout,
		Writer:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("%s %w", common.ErrorIcon, err)
	}
	fmt.Printf("\n%s EC2インスタンス (%s) は %s になりました\n", common.SuccessIcon, instanceId, state)
	return nil
}

func init() {
	RootCmd.AddCommand(Ec2Cmd)
	Ec2Cmd.AddCommand(ec2StartCmd)
	Ec2Cmd.AddCommand(ec2StopCmd)
	Ec2Cmd.AddCommand(ec2LsCmd)

	// フラグの追加
	for _, c := range []*cobra.Command{ec2StartCmd, ec2StopCmd} {
		c.Flags().StringVarP(&ec2InstanceId, "instance", "i", "", "EC2インスタンスID（省略時は一覧から選択）")
		c.Flags().BoolVarP(&ec2Wait, "wait", "w", false, "目的の状態になるまで待機する")
		c.Flags().DurationVar(&ec2WaitTimeout, "wait-timeout", 5*time.Minute, "待機の最大時間")
	}
}
