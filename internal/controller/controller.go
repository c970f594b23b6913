// Package controller はスケジュールトリガーから呼び出されるインスタンス起動/停止コントローラー
//
// 呼び出し間で状態を持たず、1回の呼び出しにつきプロバイダーへの状態変更リクエストは最大1回。
// 既に要求された状態にある場合は成功として扱う。
package controller

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout はプロバイダー呼び出しのデフォルトタイムアウト
const DefaultTimeout = 10 * time.Second

// Transition はプロバイダーが報告した状態遷移
type Transition struct {
	InstanceID    string
	PreviousState string
	CurrentState  string
	DryRun        bool
}

// alreadyIn は遷移前後ともに state だったか（何も起きなかった）を判定する
func (t Transition) alreadyIn(state string) bool {
	return t.PreviousState == state && t.CurrentState == state
}

// Provider はコンピュートAPIのポート
type Provider interface {
	StartInstance(ctx context.Context, instanceID string) (Transition, error)
	StopInstance(ctx context.Context, instanceID string) (Transition, error)
}

// Config はコントローラーの設定
type Config struct {
	Timeout             time.Duration
	AlreadyInStateCodes []string
}

// Controller はスケジュールリクエストを処理する
type Controller struct {
	provider     Provider
	timeout      time.Duration
	alreadyCodes map[string]struct{}
	logger       zerolog.Logger
}

// New はプロバイダーを注入してコントローラーを作成する
func New(provider Provider, cfg Config, logger zerolog.Logger) *Controller {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	codes := cfg.AlreadyInStateCodes
	if len(codes) == 0 {
		codes = DefaultAlreadyInStateCodes
	}
	alreadyCodes := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		alreadyCodes[code] = struct{}{}
	}

	return &Controller{
		provider:     provider,
		timeout:      timeout,
		alreadyCodes: alreadyCodes,
		logger:       logger,
	}
}

// Handle は生のJSONペイロードを検証して実行する。必ず Result を返し、panic も外に出さない
func (c *Controller) Handle(ctx context.Context, payload []byte) (result Result) {
	log := c.loggerFor(ctx)
	defer c.recoverInto(&result, log)

	req, err := ParseRequest(payload)
	if err != nil {
		log.Warn().Err(err).Msg("rejected schedule request")
		return badRequest(err)
	}
	return c.Execute(ctx, req)
}

// HandlePayload はデコード済みのペイロードを検証して実行する
func (c *Controller) HandlePayload(ctx context.Context, p Payload) (result Result) {
	log := c.loggerFor(ctx)
	defer c.recoverInto(&result, log)

	req, err := Validate(p)
	if err != nil {
		log.Warn().Err(err).Msg("rejected schedule request")
		return badRequest(err)
	}
	return c.Execute(ctx, req)
}

// Execute は検証済みリクエストに対してプロバイダーを1回だけ呼び出す
func (c *Controller) Execute(ctx context.Context, req ScheduleRequest) (result Result) {
	log := c.loggerFor(ctx).With().
		Str("action", string(req.Action())).
		Str("instance_id", req.InstanceID()).
		Logger()
	defer c.recoverInto(&result, log)

	if !req.valid() {
		log.Warn().Msg("rejected empty schedule request")
		return badRequest(ErrMissingInstanceID)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		transition Transition
		err        error
	)
	switch req.Action() {
	case ActionStart:
		transition, err = c.provider.StartInstance(callCtx, req.InstanceID())
	case ActionStop:
		transition, err = c.provider.StopInstance(callCtx, req.InstanceID())
	}
	if err != nil {
		return c.fromError(callCtx, log, req, err)
	}

	if transition.DryRun {
		log.Info().Msg("dry run succeeded")
		return dryRun(req)
	}

	if transition.alreadyIn(req.Action().TargetState()) {
		log.Info().Str("state", transition.CurrentState).Msg("instance already in requested state")
		return alreadyInState(req)
	}

	log.Info().
		Str("previous_state", transition.PreviousState).
		Str("current_state", transition.CurrentState).
		Msg("state transition requested")
	return accepted(req)
}

func (c *Controller) fromError(callCtx context.Context, log zerolog.Logger, req ScheduleRequest, err error) Result {
	code, structured := errorCode(err)
	if structured {
		if _, ok := c.alreadyCodes[code]; ok {
			// IncorrectInstanceState は stopping や terminated でも返るため、原因の文言を残す
			log.Info().
				Str("error_code", code).
				Str("provider_message", providerDetail(err)).
				Msg("instance already in requested state")
			return alreadyInState(req)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		log.Error().Err(err).Dur("timeout", c.timeout).Msg("provider call timed out")
		return timedOut(req, c.timeout)
	}

	log.Error().Err(err).Str("error_code", code).Msg("provider rejected state transition")
	return providerFailure(req, providerDetail(err))
}

// recoverInto は想定外の panic を汎用エラーの Result に変換する
func (c *Controller) recoverInto(result *Result, log zerolog.Logger) {
	if r := recover(); r != nil {
		log.Error().
			Str("panic", fmt.Sprint(r)).
			Str("stack", string(debug.Stack())).
			Msg("unexpected failure while handling schedule request")
		*result = internalError()
	}
}

// loggerFor はコンテキストにロガーがあればそれを使う（LambdaのリクエストID付きなど）
func (c *Controller) loggerFor(ctx context.Context) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return c.logger
}
