package ec2

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"

	"ec2sched/internal/controller"
)

// dryRunOperationCode はDryRun指定時に「権限があり実行可能」だったことを示すコード
const dryRunOperationCode = "DryRunOperation"

// singleAttempt は状態変更APIをSDKのリトライなしで1回だけ呼び出すためのオプション
// クライアント側の設定に関わらず、1回の呼び出しにつきリクエストは1回
func singleAttempt(o *ec2.Options) {
	o.Retryer = aws.NopRetryer{}
	o.RetryMaxAttempts = 0
}

// Provider はEC2をコントローラーのプロバイダーとして使うためのアダプター
type Provider struct {
	client API
	dryRun bool
}

// NewProvider はEC2クライアントからプロバイダーを作成する
func NewProvider(client API, dryRun bool) *Provider {
	return &Provider{client: client, dryRun: dryRun}
}

// StartInstance はcontroller.Providerの実装
func (p *Provider) StartInstance(ctx context.Context, instanceID string) (controller.Transition, error) {
	return StartEc2Instance(ctx, p.client, instanceID, p.dryRun)
}

// StopInstance はcontroller.Providerの実装
func (p *Provider) StopInstance(ctx context.Context, instanceID string) (controller.Transition, error) {
	return StopEc2Instance(ctx, p.client, instanceID, p.dryRun)
}

// toProviderError はSDKのAPIエラーをエラーコード付きのProviderErrorに変換する
// APIエラー以外（ネットワークエラーやタイムアウト）はそのまま返す
func toProviderError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	return &controller.ProviderError{
		Code:    apiErr.ErrorCode(),
		Message: apiErr.ErrorMessage(),
		Err:     err,
	}
}

func isDryRunSuccess(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == dryRunOperationCode
}

// findTransition はレスポンスから対象インスタンスの状態遷移を取り出す
func findTransition(changes []types.InstanceStateChange, instanceId string) controller.Transition {
	transition := controller.Transition{InstanceID: instanceId}
	for _, change := range changes {
		if change.InstanceId == nil || *change.InstanceId != instanceId {
			continue
		}
		if change.PreviousState != nil {
			transition.PreviousState = string(change.PreviousState.Name)
		}
		if change.CurrentState != nil {
			transition.CurrentState = string(change.CurrentState.Name)
		}
		break
	}
	return transition
}
