package moduledef

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/cryptoasl/internal/catalog"
	"github.com/vk/cryptoasl/internal/domain"
)

func manifestsDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "domain", "manifests")
}

func TestLoad_ParsesEveryMethodBlock(t *testing.T) {
	manifests, err := Load(manifestsDir(t))
	require.NoError(t, err)
	assert.Len(t, manifests, 8)
}

func TestValidate_PassesAgainstTheLiveCatalog(t *testing.T) {
	manifests, err := Load(manifestsDir(t))
	require.NoError(t, err)

	tb := domain.New(nil, nil)
	cat, err := catalog.New(tb)
	require.NoError(t, err)

	require.NoError(t, Validate(manifests, cat))
}

func TestEnrichDocument_CopiesManifestDescriptionsOntoTheDocument(t *testing.T) {
	manifests, err := Load(manifestsDir(t))
	require.NoError(t, err)

	tb := domain.New(nil, nil)
	cat, err := catalog.New(tb)
	require.NoError(t, err)
	require.NoError(t, Validate(manifests, cat))

	doc := cat.Document()
	require.Empty(t, doc.Methods["GetLatestPrice"].Description)

	EnrichDocument(manifests, doc)

	method := doc.Methods["GetLatestPrice"]
	assert.Equal(t, "The most recently observed price for a symbol.", method.Description)
	assert.Equal(t, "Ticker symbol, e.g. BTC.", method.Parameters["arg0"].Description)
}

func TestValidate_CatchesArityDrift(t *testing.T) {
	tb := domain.New(nil, nil)
	cat, err := catalog.New(tb)
	require.NoError(t, err)

	manifests := []*MethodManifest{
		{Method: "GetLatestPrice", Inputs: []InputManifest{{Name: "arg0"}, {Name: "arg1"}}},
	}
	err = Validate(manifests, cat)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GetLatestPrice")
}

func TestValidate_CatchesUnknownMethod(t *testing.T) {
	tb := domain.New(nil, nil)
	cat, err := catalog.New(tb)
	require.NoError(t, err)

	manifests := []*MethodManifest{{Method: "DoesNotExist"}}
	err = Validate(manifests, cat)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DoesNotExist")
}
