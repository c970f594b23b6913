package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	awsclient "ec2sched/internal/aws"
	"ec2sched/internal/config"
	"ec2sched/internal/logx"
)

// AppName はコマンド名
const AppName = "ec2sched"

var (
	region  string
	profile string

	awsCtx    awsclient.Context
	clients   *awsclient.Clients
	appViper  = config.NewViper()
	appConfig config.Config
	logger    = zerolog.Nop()
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   AppName,
	Short: "EC2インスタンスのスケジュール起動/停止ツール",
	Long: `非本番環境のEC2インスタンスをスケジュールで起動/停止するコントローラーの運用ツールです。
Lambdaで動くコントローラーと同じ処理をローカルから実行できます。`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := RootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&region, "region", "R", "", "AWSリージョン")
	RootCmd.PersistentFlags().StringVarP(&profile, "profile", "P", "", "AWSプロファイル")
	RootCmd.PersistentFlags().Duration("timeout", 0, "プロバイダー呼び出しのタイムアウト（例: 10s）")
	RootCmd.PersistentFlags().String("log-level", "", "ログレベル (debug|info|warn|error)")
	RootCmd.PersistentFlags().Bool("dry-run", false, "EC2 APIをDryRunで呼び出す")

	_ = appViper.BindPFlag(config.KeyTimeout, RootCmd.PersistentFlags().Lookup("timeout"))
	_ = appViper.BindPFlag(config.KeyLogLevel, RootCmd.PersistentFlags().Lookup("log-level"))
	_ = appViper.BindPFlag(config.KeyDryRun, RootCmd.PersistentFlags().Lookup("dry-run"))
	appViper.SetDefault(config.KeyLogFormat, "console")
	appViper.SetDefault(config.KeyLogLevel, "warn")

	// コマンド実行前に共通で設定とAWS認証情報を読み込む
	RootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if SkipsAwsSetup(cmd) {
			return nil
		}
		return setupContext(cmd)
	}
}

// SkipsAwsSetup はAWS設定を読み込まないコマンド（ヘルプ・バージョン）かどうか
// これらのコマンドでは --region などの共通フラグは意味を持たない
func SkipsAwsSetup(cmd *cobra.Command) bool {
	return cmd.Name() == "help" || cmd.Name() == "version"
}

// setupContext は.env・設定・ロガー・AWS設定を順に読み込む
func setupContext(cmd *cobra.Command) error {
	if err := loadDotEnv(); err != nil {
		return err
	}

	cfg, err := config.Load(appViper)
	if err != nil {
		return fmt.Errorf("❌ 設定の読み込みに失敗: %w", err)
	}
	appConfig = cfg

	logger, err = logx.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("❌ ロガーの初期化に失敗: %w", err)
	}

	resolveProfile(cmd)
	if region == "" {
		region = cfg.Region
	}

	awsCtx = awsclient.Context{Profile: profile, Region: region}
	awsCfg, err := awsCtx.GetConfig(cmd.Context())
	if err != nil {
		return fmt.Errorf("❌ AWS設定の読み込みエラー: %w", err)
	}
	clients = awsclient.NewClientsFromConfig(awsCfg)
	return nil
}

// loadDotEnv はカレントディレクトリの.envを読み込む（存在しなければ何もしない）
func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("❌ .envの読み込みに失敗: %w", err)
}

// resolveProfile はプロファイル未指定時に環境変数 AWS_PROFILE を使う
// どちらもなければSDKのデフォルト認証情報チェーンに任せる
func resolveProfile(cmd *cobra.Command) {
	if profile != "" {
		return
	}
	if envProfile := os.Getenv("AWS_PROFILE"); envProfile != "" {
		profile = envProfile
		cmd.PrintErrln("🔍 環境変数 AWS_PROFILE の値 '" + profile + "' を使用します")
	}
}
