package main

import (
	"context"
	"encoding/json"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/rs/zerolog"

	awsclient "ec2sched/internal/aws"
	"ec2sched/internal/config"
	"ec2sched/internal/controller"
	"ec2sched/internal/logx"
	ec2svc "ec2sched/internal/service/ec2"
)

// newHandler はLambdaのハンドラーを作成する
// コントローラーは常に Result を返すため、Lambdaとしてのエラーは返さない
func newHandler(ctrl *controller.Controller, logger zerolog.Logger) func(context.Context, json.RawMessage) (controller.Result, error) {
	return func(ctx context.Context, event json.RawMessage) (controller.Result, error) {
		reqLogger := logger
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			reqLogger = logger.With().Str("request_id", lc.AwsRequestID).Logger()
		}
		ctx = reqLogger.WithContext(ctx)

		result := ctrl.Handle(ctx, event)
		reqLogger.Info().
			Int("status_code", result.StatusCode).
			Str("body", result.Message).
			Msg("schedule request handled")
		return result, nil
	}
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.NewViper())
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	logger, err := logx.New(cfg.LogLevel, cfg.LogFormat, nil)
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗: %v", err)
	}

	// AWS設定をロード（Lambda実行ロールが自動的に使われる）
	clients, err := awsclient.NewAwsClients(ctx, awsclient.Context{Region: cfg.Region})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load AWS config")
	}

	provider := ec2svc.NewProvider(clients.Ec2(), cfg.DryRun)
	ctrl := controller.New(provider, cfg.Controller(), logger)

	lambda.Start(newHandler(ctrl, logger))
}
