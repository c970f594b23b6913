package ec2

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"ec2sched/internal/controller"
)

// StartEc2Instance はEC2インスタンスを起動します
func StartEc2Instance(ctx context.Context, client API, instanceId string, dryRun bool) (controller.Transition, error) {
	input := &ec2.StartInstancesInput{
		InstanceIds: []string{instanceId},
		DryRun:      aws.Bool(dryRun),
	}

	output, err := client.StartInstances(ctx, input, singleAttempt)
	if err != nil {
		if dryRun && isDryRunSuccess(err) {
			return controller.Transition{InstanceID: instanceId, DryRun: true}, nil
		}
		return controller.Transition{}, fmt.Errorf("EC2インスタンス起動エラー: %w", toProviderError(err))
	}

	return findTransition(output.StartingInstances, instanceId), nil
}
