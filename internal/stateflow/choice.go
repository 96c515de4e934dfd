package stateflow

import (
	"strconv"
	"time"

	"github.com/vk/cryptoasl/internal/asl"
	"github.com/vk/cryptoasl/internal/jsonpath"
	"github.com/vk/cryptoasl/internal/jsonvalue"
)

// coerceNumber implements the Choice table's "numeric coerce of var" rule:
// a number passes through as-is, a numeric string parses, anything else
// fails to coerce.
func coerceNumber(v jsonvalue.Value) (float64, bool) {
	switch v.Kind {
	case jsonvalue.KindNumber:
		return v.Num, true
	case jsonvalue.KindString:
		f, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// evaluateChoice runs a Choice state against currentData, returning the
// Next state name to transition to. Per spec's documented Open Question,
// a rule with more than one comparator field set fires if *any* of them
// evaluates true — simpler than AWS's actual conjunction semantics, kept
// deliberately per spec.
func evaluateChoice(stateName string, s *asl.State, currentData jsonvalue.Value) (string, error) {
	for _, c := range s.Choices {
		ok, err := evaluateRule(c, currentData)
		if err != nil {
			return "", err
		}
		if ok {
			return c.Next, nil
		}
	}
	if s.Default != "" {
		return s.Default, nil
	}
	return "", &ChoiceError{State: stateName, Reason: "no rule matched and no Default set"}
}

func evaluateRule(c asl.Choice, currentData jsonvalue.Value) (bool, error) {
	if len(c.And) > 0 {
		for _, sub := range c.And {
			ok, err := evaluateRule(sub, currentData)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
	if len(c.Or) > 0 {
		for _, sub := range c.Or {
			ok, err := evaluateRule(sub, currentData)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
	if c.Not != nil {
		ok, err := evaluateRule(*c.Not, currentData)
		return !ok, err
	}

	fired := false

	if c.IsPresent != nil {
		v, _ := jsonpath.GetByPath(currentData, c.Variable)
		fired = fired || (!v.IsNull() == *c.IsPresent)
	}

	v, err := jsonpath.GetByPath(currentData, c.Variable)
	if err != nil {
		return false, err
	}

	if c.IsNull != nil && (v.IsNull() == *c.IsNull) {
		fired = true
	}
	if c.IsString != nil && (v.Kind == jsonvalue.KindString) == *c.IsString {
		fired = true
	}
	if c.IsNumeric != nil && (v.Kind == jsonvalue.KindNumber) == *c.IsNumeric {
		fired = true
	}
	if c.IsBoolean != nil && (v.Kind == jsonvalue.KindBool) == *c.IsBoolean {
		fired = true
	}
	if c.IsTimestamp != nil {
		_, err := time.Parse(time.RFC3339, v.Str)
		fired = fired || ((v.Kind == jsonvalue.KindString && err == nil) == *c.IsTimestamp)
	}

	if c.StringEquals != nil && v.Kind == jsonvalue.KindString && v.Str == *c.StringEquals {
		fired = true
	}
	if c.StringLessThan != nil && v.Kind == jsonvalue.KindString && v.Str < *c.StringLessThan {
		fired = true
	}
	if c.StringGreaterThan != nil && v.Kind == jsonvalue.KindString && v.Str > *c.StringGreaterThan {
		fired = true
	}
	if c.StringLessThanEquals != nil && v.Kind == jsonvalue.KindString && v.Str <= *c.StringLessThanEquals {
		fired = true
	}
	if c.StringGreaterThanEquals != nil && v.Kind == jsonvalue.KindString && v.Str >= *c.StringGreaterThanEquals {
		fired = true
	}

	if n, ok := coerceNumber(v); ok {
		if c.NumericEquals != nil && n == *c.NumericEquals {
			fired = true
		}
		if c.NumericLessThan != nil && n < *c.NumericLessThan {
			fired = true
		}
		if c.NumericGreaterThan != nil && n > *c.NumericGreaterThan {
			fired = true
		}
		if c.NumericLessThanEquals != nil && n <= *c.NumericLessThanEquals {
			fired = true
		}
		if c.NumericGreaterThanEquals != nil && n >= *c.NumericGreaterThanEquals {
			fired = true
		}
	}

	if c.BooleanEquals != nil && v.Kind == jsonvalue.KindBool && v.Bool == *c.BooleanEquals {
		fired = true
	}

	if c.TimestampEquals != nil && timestampCompare(v, *c.TimestampEquals, func(a, b time.Time) bool { return a.Equal(b) }) {
		fired = true
	}
	if c.TimestampLessThan != nil && timestampCompare(v, *c.TimestampLessThan, func(a, b time.Time) bool { return a.Before(b) }) {
		fired = true
	}
	if c.TimestampGreaterThan != nil && timestampCompare(v, *c.TimestampGreaterThan, func(a, b time.Time) bool { return a.After(b) }) {
		fired = true
	}
	if c.TimestampLessThanEquals != nil && timestampCompare(v, *c.TimestampLessThanEquals, func(a, b time.Time) bool { return !a.After(b) }) {
		fired = true
	}
	if c.TimestampGreaterThanEquals != nil && timestampCompare(v, *c.TimestampGreaterThanEquals, func(a, b time.Time) bool { return !a.Before(b) }) {
		fired = true
	}

	return fired, nil
}

func timestampCompare(v jsonvalue.Value, rhs string, cmp func(a, b time.Time) bool) bool {
	if v.Kind != jsonvalue.KindString {
		return false
	}
	a, err := time.Parse(time.RFC3339, v.Str)
	if err != nil {
		return false
	}
	b, err := time.Parse(time.RFC3339, rhs)
	if err != nil {
		return false
	}
	return cmp(a, b)
}
