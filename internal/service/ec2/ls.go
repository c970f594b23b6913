package ec2

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"ec2sched/internal/service/common"
)

// ListEc2Instances 現在のリージョンのEC2インスタンス一覧を取得する
func ListEc2Instances(ctx context.Context, client API) ([]Instance, error) {
	var instances []Instance

	input := &ec2.DescribeInstancesInput{}
	for {
		result, err := client.DescribeInstances(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("EC2インスタンス一覧の取得に失敗: %w", err)
		}

		for _, reservation := range result.Reservations {
			for _, instance := range reservation.Instances {
				// 終了済みのインスタンスは除外
				if instance.State != nil && instance.State.Name == types.InstanceStateNameTerminated {
					continue
				}
				instances = append(instances, toInstance(instance))
			}
		}

		if result.NextToken == nil {
			break
		}
		input.NextToken = result.NextToken
	}

	return instances, nil
}

// GetEc2Instance は単一インスタンスの現在の情報を取得する
func GetEc2Instance(ctx context.Context, client API, instanceId string) (Instance, error) {
	result, err := client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{instanceId},
	})
	if err != nil {
		return Instance{}, fmt.Errorf("EC2インスタンス %s の取得に失敗: %w", instanceId, err)
	}

	for _, reservation := range result.Reservations {
		for _, instance := range reservation.Instances {
			if instance.InstanceId != nil && *instance.InstanceId == instanceId {
				return toInstance(instance), nil
			}
		}
	}
	return Instance{}, fmt.Errorf("EC2インスタンス %s が見つかりません", instanceId)
}

func toInstance(instance types.Instance) Instance {
	// インスタンス名を取得（Nameタグから）
	instanceName := "（名前なし）"
	for _, tag := range instance.Tags {
		if tag.Key != nil && *tag.Key == "Name" && tag.Value != nil {
			instanceName = *tag.Value
			break
		}
	}

	var id, state string
	if instance.InstanceId != nil {
		id = *instance.InstanceId
	}
	if instance.State != nil {
		state = string(instance.State.Name)
	}

	return Instance{
		InstanceId:   id,
		InstanceName: instanceName,
		State:        state,
	}
}

// DisplayInstances はインスタンス一覧をテーブル表示する
func DisplayInstances(instances []Instance) {
	if len(instances) == 0 {
		fmt.Println(common.FormatEmptyMessage("EC2インスタンス"))
		return
	}

	columns := []common.TableColumn{
		{Header: "番号"},
		{Header: "インスタンスID"},
		{Header: "インスタンス名"},
		{Header: "状態"},
	}

	data := make([][]string, len(instances))
	for i, instance := range instances {
		data[i] = []string{
			strconv.Itoa(i + 1),
			instance.InstanceId,
			instance.InstanceName,
			instance.State,
		}
	}

	common.PrintTable("EC2インスタンス一覧", columns, data)
}

// SelectInstanceInteractively EC2インスタンス一覧を表示してユーザーに選択させる
func SelectInstanceInteractively(ctx context.Context, client API, in io.Reader) (string, error) {
	fmt.Println("EC2インスタンス一覧を取得中...")

	instances, err := ListEc2Instances(ctx, client)
	if err != nil {
		return "", fmt.Errorf("%s EC2インスタンス一覧の取得に失敗: %w", common.ErrorIcon, err)
	}

	if len(instances) == 0 {
		return "", fmt.Errorf("%s 利用可能なEC2インスタンスが見つかりません", common.ErrorIcon)
	}

	fmt.Printf("\n%s 利用可能なEC2インスタンス:\n", common.InfoIcon)
	DisplayInstances(instances)

	// ユーザーに選択させる
	fmt.Print("\n操作するインスタンスの番号を入力してください: ")
	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && input == "" {
		return "", fmt.Errorf("%s 入力の読み取りに失敗: %w", common.ErrorIcon, err)
	}

	input = strings.TrimSpace(input)
	selectedNum, err := strconv.Atoi(input)
	if err != nil {
		return "", fmt.Errorf("%s 無効な番号です: %s", common.ErrorIcon, input)
	}

	// 範囲チェック
	if selectedNum < 1 || selectedNum > len(instances) {
		return "", fmt.Errorf("%s 番号は1から%dの間で入力してください", common.ErrorIcon, len(instances))
	}

	selectedInstance := instances[selectedNum-1]
	fmt.Printf("%s 選択されたインスタンス: %s (%s)\n",
		common.SuccessIcon, selectedInstance.InstanceName, selectedInstance.InstanceId)

	return selectedInstance.InstanceId, nil
}
