package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"ec2sched/internal/controller"
	ec2svc "ec2sched/internal/service/ec2"
)

// newController はCLIの設定からLambdaと同じ構成のコントローラーを作成する
func newController() *controller.Controller {
	provider := ec2svc.NewProvider(clients.Ec2(), appConfig.DryRun)
	return controller.New(provider, appConfig.Controller(), logger)
}

// writeResultJSON はLambdaのレスポンスと同じ形式で結果を出力する
func writeResultJSON(w io.Writer, result controller.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// resultError はステータスが200以外の結果をエラーに変換する
func resultError(result controller.Result) error {
	if result.OK() {
		return nil
	}
	return fmt.Errorf("❌ [%d] %s", result.StatusCode, result.Message)
}
