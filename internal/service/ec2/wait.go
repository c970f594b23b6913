package ec2

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// WaitOptions は状態待機のオプション
type WaitOptions struct {
	Timeout  time.Duration // 最大待機時間
	Interval time.Duration // ポーリング間隔
	Writer   io.Writer     // プログレス表示先（nilの場合は標準エラー出力）
}

// WaitForState はインスタンスが指定の状態になるまでポーリングする
func WaitForState(ctx context.Context, client API, instanceId, target string, opts WaitOptions) (string, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.Writer == nil {
		opts.Writer = os.Stderr
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(opts.Writer),
		progressbar.OptionSetDescription(fmt.Sprintf("%s が %s になるのを待機中...", instanceId, target)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)
	defer func() { _ = bar.Finish() }()

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	state := ""
	for {
		instance, err := GetEc2Instance(ctx, client, instanceId)
		if err != nil {
			return state, err
		}
		state = instance.State
		if state == target {
			return state, nil
		}
		_ = bar.Add(1)

		select {
		case <-ctx.Done():
			return state, fmt.Errorf("インスタンス %s が %s になる前にタイムアウトしました（現在: %s）: %w", instanceId, target, state, ctx.Err())
		case <-ticker.C:
		}
	}
}
