package cmd

import (
	"github.com/spf13/cobra"

	"ec2sched/internal/controller"
)

var (
	invokePayload    string
	invokeAction     string
	invokeInstanceId string
)

var invokeCmd = &cobra.Command{
	Use:   "invoke",
	Short: "コントローラーをローカルで実行",
	Long: `スケジュールトリガーと同じペイロードでコントローラーをローカル実行し、
Lambdaと同じ形式のJSONレスポンスを表示します。

例:
  ` + AppName + ` invoke --payload '{"action":"stop","instance_id":"i-1234567890abcdef0"}'
  ` + AppName + ` invoke -a start -i i-1234567890abcdef0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl := newController()

		var result controller.Result
		if cmd.Flags().Changed("payload") {
			result = ctrl.Handle(cmd.Context(), []byte(invokePayload))
		} else {
			result = ctrl.HandlePayload(cmd.Context(), controller.Payload{
				Action:     invokeAction,
				InstanceID: invokeInstanceId,
			})
		}

		if err := writeResultJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
		return resultError(result)
	},
	SilenceUsage: true,
}

func init() {
	RootCmd.AddCommand(invokeCmd)

	invokeCmd.Flags().StringVar(&invokePayload, "payload", "", "トリガーから渡されるJSONペイロード")
	invokeCmd.Flags().StringVarP(&invokeAction, "action", "a", "", "アクション (start|stop)")
	invokeCmd.Flags().StringVarP(&invokeInstanceId, "instance", "i", "", "EC2インスタンスID")
	invokeCmd.MarkFlagsMutuallyExclusive("payload", "action")
	invokeCmd.MarkFlagsMutuallyExclusive("payload", "instance")
}
