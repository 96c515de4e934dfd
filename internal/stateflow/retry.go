package stateflow

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/vk/cryptoasl/internal/asl"
	"github.com/vk/cryptoasl/internal/catalog"
	"github.com/vk/cryptoasl/internal/jsonpath"
	"github.com/vk/cryptoasl/internal/jsonvalue"
)

// errorTypeName maps an interpreter error to the name Retry/Catch's
// ErrorEquals lists compare against. Unrecognized error types match only
// the literal "States.ALL" catch-all.
func errorTypeName(err error) string {
	var hostErr *catalog.HostError
	var resErr *catalog.ResourceError
	var defErr *DefinitionError
	var choiceErr *ChoiceError
	var pathErr *jsonpath.PathError
	var cancelErr *CancelledError
	var failErr *FailState
	switch {
	case errors.As(err, &hostErr):
		return "HostError"
	case errors.As(err, &resErr):
		return "ResourceError"
	case errors.As(err, &defErr):
		return "DefinitionError"
	case errors.As(err, &choiceErr):
		return "ChoiceError"
	case errors.As(err, &pathErr):
		return "PathError"
	case errors.As(err, &cancelErr):
		return "CancelledError"
	case errors.As(err, &failErr):
		return "FailState"
	default:
		return "Unknown"
	}
}

func matchesErrorEquals(list []string, name string) bool {
	for _, e := range list {
		if e == "States.ALL" || e == name {
			return true
		}
	}
	return false
}

// withRetry runs fn, and if it fails, applies the first matching Retry
// rule: IntervalSeconds * BackoffRate^attempt between tries, up to
// MaxAttempts, per spec §9. Retry is opt-in — with no rules this is a
// plain passthrough.
func (i *Interpreter) withRetry(ctx context.Context, rules []asl.RetryRule, fn func() (jsonvalue.Value, error)) (jsonvalue.Value, error) {
	result, err := fn()
	if err == nil || len(rules) == 0 {
		return result, err
	}

	typeName := errorTypeName(err)
	for _, rule := range rules {
		if !matchesErrorEquals(rule.ErrorEquals, typeName) {
			continue
		}
		maxAttempts := rule.MaxAttempts
		if maxAttempts <= 0 {
			maxAttempts = 3
		}
		interval := rule.IntervalSeconds
		if interval <= 0 {
			interval = 1
		}
		backoff := rule.BackoffRate
		if backoff <= 0 {
			backoff = 2
		}

		for attempt := 1; attempt <= maxAttempts; attempt++ {
			delay := time.Duration(interval*math.Pow(backoff, float64(attempt-1))) * time.Second
			if sleepErr := i.clock().Sleep(ctx, delay); sleepErr != nil {
				return jsonvalue.Null, &CancelledError{Cause: sleepErr}
			}
			result, err = fn()
			if err == nil {
				return result, nil
			}
			typeName = errorTypeName(err)
			if !matchesErrorEquals(rule.ErrorEquals, typeName) {
				return jsonvalue.Null, err
			}
		}
		return jsonvalue.Null, err
	}
	return jsonvalue.Null, err
}

// tryCatch returns the first Catch rule matching err's type, or nil.
func tryCatch(rules []asl.CatchRule, err error) *asl.CatchRule {
	typeName := errorTypeName(err)
	for idx := range rules {
		if matchesErrorEquals(rules[idx].ErrorEquals, typeName) {
			return &rules[idx]
		}
	}
	return nil
}

// errorObject renders err as the JSON object ASL's Catch writes at
// ResultPath: {"Error": "<type>", "Cause": "<message>"}.
func errorObject(err error) jsonvalue.Value {
	out := jsonvalue.NewMap()
	out.Set("Error", jsonvalue.String(errorTypeName(err)))
	out.Set("Cause", jsonvalue.String(err.Error()))
	return out
}
