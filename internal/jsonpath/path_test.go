package jsonpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/cryptoasl/internal/jsonvalue"
)

func objFixture() jsonvalue.Value {
	root := jsonvalue.NewMap()
	inner := jsonvalue.NewMap()
	inner.Set("b", jsonvalue.String("x"))
	root.Set("a", inner)
	root.Set("list", jsonvalue.NewSeq(jsonvalue.Number(1), jsonvalue.Number(2), jsonvalue.Number(3)))
	return root
}

func TestGetByPath_RootIdentity(t *testing.T) {
	v := objFixture()
	got, err := GetByPath(v, "$")
	require.NoError(t, err)
	assert.True(t, jsonvalue.Equal(v, got))
}

func TestGetByPath_MissingYieldsNull(t *testing.T) {
	v := objFixture()
	got, err := GetByPath(v, "$.missing.deep")
	require.NoError(t, err)
	assert.True(t, got.IsNull())
}

func TestGetByPath_SequenceIndex(t *testing.T) {
	v := objFixture()
	got, err := GetByPath(v, "$.list.1")
	require.NoError(t, err)
	assert.Equal(t, float64(2), got.Num)
}

func TestGetByPath_OutOfRangeIndexIsNull(t *testing.T) {
	v := objFixture()
	got, err := GetByPath(v, "$.list.99")
	require.NoError(t, err)
	assert.True(t, got.IsNull())
}

// TestPathRoundTrip verifies spec §8 property 1: placing back a value read
// from an existing path reproduces the original document.
func TestPathRoundTrip(t *testing.T) {
	v := objFixture()
	for _, path := range []string{"$.a.b", "$.list.0", "$"} {
		got, err := GetByPath(v, path)
		require.NoError(t, err)
		placed, err := PlaceByPath(v, path, got)
		require.NoError(t, err)
		assert.True(t, jsonvalue.Equal(v, placed), "round-trip mismatch for path %s", path)
	}
}

func TestPlaceByPath_MaterialisesIntermediateMaps(t *testing.T) {
	placed, err := PlaceByPath(jsonvalue.Null, "$.a.b.c", jsonvalue.Number(7))
	require.NoError(t, err)
	got, err := GetByPath(placed, "$.a.b.c")
	require.NoError(t, err)
	assert.Equal(t, float64(7), got.Num)
}

func TestPlaceByPath_ExtendsSequenceWithNulls(t *testing.T) {
	placed, err := PlaceByPath(jsonvalue.Null, "$.items.2", jsonvalue.String("z"))
	require.NoError(t, err)
	items, err := GetByPath(placed, "$.items")
	require.NoError(t, err)
	require.Equal(t, jsonvalue.KindSeq, items.Kind)
	require.Len(t, items.Seq, 3)
	assert.True(t, items.Seq[0].IsNull())
	assert.True(t, items.Seq[1].IsNull())
	assert.Equal(t, "z", items.Seq[2].Str)
}

func TestPlaceByPath_DoesNotMutateOriginal(t *testing.T) {
	original := objFixture()
	clone := jsonvalue.Clone(original)
	_, err := PlaceByPath(original, "$.a.b", jsonvalue.String("mutated"))
	require.NoError(t, err)
	assert.True(t, jsonvalue.Equal(original, clone), "PlaceByPath must not mutate its input")
}

func TestMergeObjects_NullSides(t *testing.T) {
	v := objFixture()
	assert.True(t, jsonvalue.Equal(v, MergeObjects(jsonvalue.Null, v)))
	assert.True(t, jsonvalue.Equal(v, MergeObjects(v, jsonvalue.Null)))
}

func TestMergeObjects_RightWinsOnScalarConflict(t *testing.T) {
	a := jsonvalue.NewMap()
	a.Set("k", jsonvalue.Number(1))
	b := jsonvalue.NewMap()
	b.Set("k", jsonvalue.Number(2))
	merged := MergeObjects(a, b)
	assert.Equal(t, float64(2), merged.Get("k").Num)
}

func TestMergeObjects_DisjointKeysUnion(t *testing.T) {
	a := jsonvalue.NewMap()
	a.Set("left", jsonvalue.Number(1))
	b := jsonvalue.NewMap()
	b.Set("right", jsonvalue.Number(2))
	merged := MergeObjects(a, b)
	assert.Equal(t, float64(1), merged.Get("left").Num)
	assert.Equal(t, float64(2), merged.Get("right").Num)
}

func TestMergeObjects_SequencesConcatenate(t *testing.T) {
	a := jsonvalue.NewSeq(jsonvalue.Number(1))
	b := jsonvalue.NewSeq(jsonvalue.Number(2))
	merged := MergeObjects(a, b)
	require.Len(t, merged.Seq, 2)
	assert.Equal(t, float64(1), merged.Seq[0].Num)
	assert.Equal(t, float64(2), merged.Seq[1].Num)
}

func TestInvalidPathIsRejected(t *testing.T) {
	_, err := GetByPath(objFixture(), "a.b")
	require.Error(t, err)
	var pathErr *PathError
	require.ErrorAs(t, err, &pathErr)
}
