package controller

import (
	"fmt"
	"net/http"
	"time"
)

// Result ScheduleResult はコントローラーの処理結果
// Lambdaのレスポンスとしてそのまま JSON に変換される
type Result struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"body"`
}

// OK は200系の結果かどうか
func (r Result) OK() bool {
	return r.StatusCode == http.StatusOK
}

func badRequest(err error) Result {
	return Result{
		StatusCode: http.StatusBadRequest,
		Message:    fmt.Sprintf("Invalid request: %v", err),
	}
}

func accepted(req ScheduleRequest) Result {
	verb := "Started"
	if req.Action() == ActionStop {
		verb = "Stopped"
	}
	return Result{
		StatusCode: http.StatusOK,
		Message:    fmt.Sprintf("%s instance %s", verb, req.InstanceID()),
	}
}

func alreadyInState(req ScheduleRequest) Result {
	return Result{
		StatusCode: http.StatusOK,
		Message:    fmt.Sprintf("Instance %s is already %s", req.InstanceID(), req.Action().PastTense()),
	}
}

func dryRun(req ScheduleRequest) Result {
	return Result{
		StatusCode: http.StatusOK,
		Message:    fmt.Sprintf("Dry run: would %s instance %s", req.Action(), req.InstanceID()),
	}
}

func providerFailure(req ScheduleRequest, detail string) Result {
	return Result{
		StatusCode: http.StatusInternalServerError,
		Message:    fmt.Sprintf("Failed to %s instance %s: %s", req.Action(), req.InstanceID(), detail),
	}
}

func timedOut(req ScheduleRequest, timeout time.Duration) Result {
	return Result{
		StatusCode: http.StatusInternalServerError,
		Message:    fmt.Sprintf("Timed out after %s while trying to %s instance %s", timeout, req.Action(), req.InstanceID()),
	}
}

func internalError() Result {
	return Result{
		StatusCode: http.StatusInternalServerError,
		Message:    "Internal error while processing the schedule request",
	}
}
