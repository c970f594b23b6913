package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Action はスケジューラーが要求する状態遷移の種類
type Action string

const (
	ActionStart Action = "start"
	ActionStop  Action = "stop"
)

// 入力検証エラー（プロバイダー呼び出し前に返す）
var (
	ErrMissingInstanceID = errors.New("instance_id is required")
	ErrInvalidAction     = errors.New("invalid action")
	ErrMalformedPayload  = errors.New("malformed payload")
)

// ParseAction は文字列をActionに変換する（大文字小文字は区別する）
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionStart, ActionStop:
		return Action(s), nil
	}
	return "", fmt.Errorf("%w %q: must be %q or %q", ErrInvalidAction, s, ActionStart, ActionStop)
}

// PastTense はメッセージ用の過去形（started / stopped）
func (a Action) PastTense() string {
	if a == ActionStart {
		return "started"
	}
	return "stopped"
}

// TargetState は遷移完了後のインスタンス状態名
func (a Action) TargetState() string {
	if a == ActionStart {
		return "running"
	}
	return "stopped"
}

// Payload はトリガーから渡される生のイベント
type Payload struct {
	Action     string `json:"action"`
	InstanceID string `json:"instance_id"`
}

// ScheduleRequest は検証済みのリクエスト。ParseRequest / NewScheduleRequest 以外では作れない
type ScheduleRequest struct {
	action     Action
	instanceID string
}

// Action は要求された状態遷移を返す
func (r ScheduleRequest) Action() Action { return r.action }

// InstanceID は対象インスタンスIDを返す
func (r ScheduleRequest) InstanceID() string { return r.instanceID }

func (r ScheduleRequest) valid() bool {
	return r.instanceID != "" && r.action != ""
}

// NewScheduleRequest はアクションとインスタンスIDを検証してリクエストを作成する
func NewScheduleRequest(action, instanceID string) (ScheduleRequest, error) {
	return Validate(Payload{Action: action, InstanceID: instanceID})
}

// Validate はペイロードを検証する。instance_id の欠落を先に判定する
func Validate(p Payload) (ScheduleRequest, error) {
	id := strings.TrimSpace(p.InstanceID)
	if id == "" {
		return ScheduleRequest{}, ErrMissingInstanceID
	}

	action, err := ParseAction(p.Action)
	if err != nil {
		return ScheduleRequest{}, err
	}

	return ScheduleRequest{action: action, instanceID: id}, nil
}

// ParseRequest はJSONペイロードをデコードして検証する
// キーは大文字小文字を区別し、"action" と "instance_id" 以外の綴りは存在しないものとして扱う
func ParseRequest(raw []byte) (ScheduleRequest, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ScheduleRequest{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	var p Payload
	if err := stringField(fields, "action", &p.Action); err != nil {
		return ScheduleRequest{}, err
	}
	if err := stringField(fields, "instance_id", &p.InstanceID); err != nil {
		return ScheduleRequest{}, err
	}
	return Validate(p)
}

// stringField は完全一致するキーの値を文字列として取り出す。null は未指定と同じ
func stringField(fields map[string]json.RawMessage, key string, dst *string) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	var v *string
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%w: %s must be a string", ErrMalformedPayload, key)
	}
	if v != nil {
		*dst = *v
	}
	return nil
}

// IsValidationError は入力検証エラーかどうかを判定する
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingInstanceID) ||
		errors.Is(err, ErrInvalidAction) ||
		errors.Is(err, ErrMalformedPayload)
}
