package stateflow

import (
	"context"
	"time"

	"github.com/vk/cryptoasl/internal/asl"
	"github.com/vk/cryptoasl/internal/jsonpath"
	"github.com/vk/cryptoasl/internal/jsonvalue"
)

// Clock abstracts the passage of time so Wait states are testable without
// a real sleep. The production path uses realClock; tests inject a fake
// that returns immediately while recording the requested duration.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// computeWaitDuration resolves a Wait state's Seconds/SecondsPath/
// Timestamp/TimestampPath fields against currentData, in that precedence
// order, per spec §4.3.
func computeWaitDuration(stateName string, s *asl.State, currentData jsonvalue.Value) (time.Duration, error) {
	switch {
	case s.Seconds != nil:
		return secondsToDuration(*s.Seconds), nil
	case s.SecondsPath != "":
		v, err := jsonpath.GetByPath(currentData, s.SecondsPath)
		if err != nil {
			return 0, err
		}
		if v.Kind != jsonvalue.KindNumber {
			return 0, &DefinitionError{State: stateName, Reason: "SecondsPath must resolve to a number"}
		}
		return secondsToDuration(v.Num), nil
	case s.Timestamp != "":
		t, err := time.Parse(time.RFC3339, s.Timestamp)
		if err != nil {
			return 0, &DefinitionError{State: stateName, Reason: "Timestamp is not RFC3339: " + err.Error()}
		}
		return clampNonNegative(time.Until(t)), nil
	case s.TimestampPath != "":
		v, err := jsonpath.GetByPath(currentData, s.TimestampPath)
		if err != nil {
			return 0, err
		}
		if v.Kind != jsonvalue.KindString {
			return 0, &DefinitionError{State: stateName, Reason: "TimestampPath must resolve to a string"}
		}
		t, err := time.Parse(time.RFC3339, v.Str)
		if err != nil {
			return 0, &DefinitionError{State: stateName, Reason: "TimestampPath value is not RFC3339: " + err.Error()}
		}
		return clampNonNegative(time.Until(t)), nil
	default:
		return 0, &DefinitionError{State: stateName, Reason: "Wait state has none of Seconds/SecondsPath/Timestamp/TimestampPath"}
	}
}

func secondsToDuration(seconds float64) time.Duration {
	return clampNonNegative(time.Duration(seconds * float64(time.Second)))
}

func clampNonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
