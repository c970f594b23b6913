// Package config はコントローラーとCLIの実行時設定を環境変数から読み込む
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"ec2sched/internal/controller"
)

// EnvPrefix は環境変数のプレフィックス（EC2SCHED_TIMEOUT など）
const EnvPrefix = "EC2SCHED"

// 設定キー
const (
	KeyTimeout             = "timeout"
	KeyLogLevel            = "log_level"
	KeyLogFormat           = "log_format"
	KeyAlreadyInStateCodes = "already_state_codes"
	KeyDryRun              = "dry_run"
	KeyRegion              = "region"
)

// Config は実行時設定
type Config struct {
	Timeout             time.Duration
	LogLevel            string
	LogFormat           string
	AlreadyInStateCodes []string
	DryRun              bool
	Region              string
}

// NewViper は環境変数とデフォルト値を設定したviperインスタンスを作成する
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyTimeout, controller.DefaultTimeout)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
	v.SetDefault(KeyAlreadyInStateCodes, strings.Join(controller.DefaultAlreadyInStateCodes, ","))
	v.SetDefault(KeyDryRun, false)
	v.SetDefault(KeyRegion, "")
	return v
}

// Load はviperから設定を読み出して検証する
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Timeout:             v.GetDuration(KeyTimeout),
		LogLevel:            strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat:           strings.ToLower(v.GetString(KeyLogFormat)),
		AlreadyInStateCodes: splitList(v.GetString(KeyAlreadyInStateCodes)),
		DryRun:              v.GetBool(KeyDryRun),
		Region:              v.GetString(KeyRegion),
	}

	if cfg.Timeout <= 0 {
		return Config{}, fmt.Errorf("%s must be greater than 0", KeyTimeout)
	}
	switch cfg.LogFormat {
	case "json", "console":
	default:
		return Config{}, fmt.Errorf("unknown log format '%s'", cfg.LogFormat)
	}
	return cfg, nil
}

// Controller はコントローラー用の設定に変換する
func (c Config) Controller() controller.Config {
	return controller.Config{
		Timeout:             c.Timeout,
		AlreadyInStateCodes: c.AlreadyInStateCodes,
	}
}

// splitList はカンマ区切りの値を分割する（空要素は除外）
func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
