package stateflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/cryptoasl/internal/asl"
)

func TestValidate_RejectsUnknownStartAt(t *testing.T) {
	def := &asl.Definition{StartAt: "Ghost", States: map[string]*asl.State{
		"Real": {Type: asl.TypeSucceed},
	}}
	err := Validate(def)
	require.Error(t, err)
	var defErr *DefinitionError
	require.ErrorAs(t, err, &defErr)
}

func TestValidate_RejectsDanglingNext(t *testing.T) {
	def := &asl.Definition{StartAt: "A", States: map[string]*asl.State{
		"A": {Type: asl.TypePass, Next: "Nowhere"},
	}}
	err := Validate(def)
	require.Error(t, err)
}

func TestValidate_RejectsChoiceWithoutRules(t *testing.T) {
	def := &asl.Definition{StartAt: "A", States: map[string]*asl.State{
		"A": {Type: asl.TypeChoice},
	}}
	err := Validate(def)
	require.Error(t, err)
}

func TestValidate_AcceptsWellFormedDefinition(t *testing.T) {
	def := &asl.Definition{StartAt: "A", States: map[string]*asl.State{
		"A": {Type: asl.TypePass, Next: "B"},
		"B": {Type: asl.TypeSucceed},
	}}
	assert.NoError(t, Validate(def))
}

func TestValidate_RecursesIntoMapIteratorAndParallelBranches(t *testing.T) {
	broken := &asl.Definition{StartAt: "X", States: map[string]*asl.State{
		"X": {Type: asl.TypePass, Next: "Missing"},
	}}
	def := &asl.Definition{StartAt: "M", States: map[string]*asl.State{
		"M": {Type: asl.TypeMap, Iterator: broken, End: true},
	}}
	err := Validate(def)
	require.Error(t, err)

	def2 := &asl.Definition{StartAt: "P", States: map[string]*asl.State{
		"P": {Type: asl.TypeParallel, Branches: []*asl.Definition{broken}, End: true},
	}}
	err2 := Validate(def2)
	require.Error(t, err2)
}
