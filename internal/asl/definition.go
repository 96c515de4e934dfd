// Package asl is the Amazon-States-Language-flavored state machine
// definition, per spec §3 and §4.3: a StartAt pointer into a map of named
// States, each carrying the data-flow fields (InputPath/Parameters/
// ResultPath/OutputPath) plus fields specific to its Type.
//
// Field naming follows the literal ASL vocabulary (grounded on
// hussainpithawala-state-machine-amz-go's field-name constants) so a
// definition round-trips through encoding/json without any translation
// layer between "what the LLM was asked to produce" and "what this
// package parses."
package asl

import "github.com/vk/cryptoasl/internal/jsonvalue"

// State type names, per spec §4.3.
const (
	TypePass     = "Pass"
	TypeTask     = "Task"
	TypeChoice   = "Choice"
	TypeWait     = "Wait"
	TypeSucceed  = "Succeed"
	TypeFail     = "Fail"
	TypeMap      = "Map"
	TypeParallel = "Parallel"
)

// Definition is one complete state machine: an entry point and its named
// states. A Map state's Iterator and a Parallel state's Branches are
// themselves Definitions, recursively.
type Definition struct {
	StartAt string           `json:"StartAt"`
	States  map[string]*State `json:"States"`
}

// State is the union of every ASL state kind. Only the fields matching
// Type are meaningful; the rest are left zero.
type State struct {
	Type string `json:"Type"`

	// Data-flow fields, common to every state per spec §4.1.
	InputPath  *string          `json:"InputPath,omitempty"`
	Parameters jsonvalue.Value  `json:"Parameters,omitempty"`
	ResultPath *string          `json:"ResultPath,omitempty"`
	OutputPath *string          `json:"OutputPath,omitempty"`

	// Control flow.
	Next string `json:"Next,omitempty"`
	End  bool   `json:"End,omitempty"`

	// Pass.
	Result jsonvalue.Value `json:"Result,omitempty"`

	// Task.
	Resource string `json:"Resource,omitempty"`

	// Choice.
	Choices []Choice `json:"Choices,omitempty"`
	Default string   `json:"Default,omitempty"`

	// Wait.
	Seconds       *float64 `json:"Seconds,omitempty"`
	SecondsPath   string   `json:"SecondsPath,omitempty"`
	Timestamp     string   `json:"Timestamp,omitempty"`
	TimestampPath string   `json:"TimestampPath,omitempty"`

	// Fail.
	Error string `json:"Error,omitempty"`
	Cause string `json:"Cause,omitempty"`

	// Map.
	ItemsPath      string      `json:"ItemsPath,omitempty"`
	Iterator       *Definition `json:"Iterator,omitempty"`
	MaxConcurrency int         `json:"MaxConcurrency,omitempty"`

	// Parallel.
	Branches []*Definition `json:"Branches,omitempty"`

	// Retry/Catch — recognized per spec §9, off the hot path, opt-in.
	Retry []RetryRule `json:"Retry,omitempty"`
	Catch []CatchRule `json:"Catch,omitempty"`
}

// IsTerminal reports whether a state ends the machine (End:true, or a
// Succeed/Fail type, which never carries Next/End).
func (s *State) IsTerminal() bool {
	if s.Type == TypeSucceed || s.Type == TypeFail {
		return true
	}
	return s.End
}

// Choice is one rule of a Choice state's ordered Choices list: a
// Variable path plus exactly one (or, per spec's documented Open
// Question, possibly several) comparator fields, and the Next state to
// take if it matches.
type Choice struct {
	Variable string `json:"Variable"`
	Next     string `json:"Next"`

	StringEquals              *string `json:"StringEquals,omitempty"`
	StringLessThan            *string `json:"StringLessThan,omitempty"`
	StringGreaterThan         *string `json:"StringGreaterThan,omitempty"`
	StringLessThanEquals      *string `json:"StringLessThanEquals,omitempty"`
	StringGreaterThanEquals   *string `json:"StringGreaterThanEquals,omitempty"`

	NumericEquals             *float64 `json:"NumericEquals,omitempty"`
	NumericLessThan           *float64 `json:"NumericLessThan,omitempty"`
	NumericGreaterThan        *float64 `json:"NumericGreaterThan,omitempty"`
	NumericLessThanEquals     *float64 `json:"NumericLessThanEquals,omitempty"`
	NumericGreaterThanEquals  *float64 `json:"NumericGreaterThanEquals,omitempty"`

	BooleanEquals *bool `json:"BooleanEquals,omitempty"`

	TimestampEquals            *string `json:"TimestampEquals,omitempty"`
	TimestampLessThan          *string `json:"TimestampLessThan,omitempty"`
	TimestampGreaterThan       *string `json:"TimestampGreaterThan,omitempty"`
	TimestampLessThanEquals    *string `json:"TimestampLessThanEquals,omitempty"`
	TimestampGreaterThanEquals *string `json:"TimestampGreaterThanEquals,omitempty"`

	IsNull      *bool `json:"IsNull,omitempty"`
	IsPresent   *bool `json:"IsPresent,omitempty"`
	IsNumeric   *bool `json:"IsNumeric,omitempty"`
	IsString    *bool `json:"IsString,omitempty"`
	IsBoolean   *bool `json:"IsBoolean,omitempty"`
	IsTimestamp *bool `json:"IsTimestamp,omitempty"`

	And []Choice `json:"And,omitempty"`
	Or  []Choice `json:"Or,omitempty"`
	Not *Choice  `json:"Not,omitempty"`
}

// RetryRule is one entry of a Task/Map/Parallel state's Retry list.
type RetryRule struct {
	ErrorEquals     []string `json:"ErrorEquals"`
	IntervalSeconds float64  `json:"IntervalSeconds,omitempty"`
	MaxAttempts     int      `json:"MaxAttempts,omitempty"`
	BackoffRate     float64  `json:"BackoffRate,omitempty"`
}

// CatchRule is one entry of a Task/Map/Parallel state's Catch list.
type CatchRule struct {
	ErrorEquals []string `json:"ErrorEquals"`
	Next        string   `json:"Next"`
	ResultPath  *string  `json:"ResultPath,omitempty"`
}
