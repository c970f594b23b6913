package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/scheduler"
)

// Clients AwsClients はAWS設定と各サービスクライアントを管理
type Clients struct {
	cfg aws.Config

	// 遅延初期化されるクライアント群
	ec2         *ec2.Client
	scheduler   *scheduler.Client
	eventBridge *eventbridge.Client
}

// NewAwsClients は認証情報からAWS設定を読み込んでクライアント管理構造体を作成
func NewAwsClients(ctx context.Context, awsCtx Context) (*Clients, error) {
	cfg, err := LoadAwsConfig(ctx, awsCtx)
	if err != nil {
		return nil, err
	}

	return NewClientsFromConfig(cfg), nil
}

// NewClientsFromConfig は読み込み済みのAWS設定からクライアント管理構造体を作成
func NewClientsFromConfig(cfg aws.Config) *Clients {
	return &Clients{cfg: cfg}
}

// Config は読み込んだAWS設定を返す
func (c *Clients) Config() aws.Config {
	return c.cfg
}

// Ec2 は遅延初期化でEC2クライアントを取得
func (c *Clients) Ec2() *ec2.Client {
	if c.ec2 == nil {
		c.ec2 = ec2.NewFromConfig(c.cfg)
	}
	return c.ec2
}

// Scheduler は遅延初期化でEventBridge Schedulerクライアントを取得
func (c *Clients) Scheduler() *scheduler.Client {
	if c.scheduler == nil {
		c.scheduler = scheduler.NewFromConfig(c.cfg)
	}
	return c.scheduler
}

// EventBridge は遅延初期化でEventBridgeクライアントを取得
func (c *Clients) EventBridge() *eventbridge.Client {
	if c.eventBridge == nil {
		c.eventBridge = eventbridge.NewFromConfig(c.cfg)
	}
	return c.eventBridge
}
