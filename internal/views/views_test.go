package views

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudreport/internal/errs"
)

const validConfig = `{
  "AWS": {
    "aws_view1": {"dimensions": ["service", "resource", "tags"], "metrics": ["cost"], "category": "core"},
    "aws_view2": {"dimensions": ["service", "account", "region"], "metrics": ["cost"], "category": "detailed"}
  },
  "Azure": {
    "azure_view1": {"dimensions": ["service", "resource"], "metrics": ["cost"], "category": "core"}
  }
}`

func TestLoadValidCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "views.json")
	require.NoError(t, os.WriteFile(path, []byte(validConfig), 0o644))

	catalog, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"AWS", "Azure"}, catalog.Providers())

	awsViews := catalog.Views("AWS")
	require.Len(t, awsViews, 2)
	assert.Equal(t, "aws_view1", awsViews[0].Name)
	assert.Equal(t, "core", awsViews[0].Category)
	assert.Equal(t, []string{"service", "resource", "tags"}, awsViews[0].Dimensions)
	assert.Equal(t, []string{"cost"}, awsViews[0].Metrics)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.Error(t, err)
	assert.Equal(t, errs.CodeConfigInvalid, errs.Code(err))
}

func TestParseRejectsBadCatalogs(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed JSON", `{"AWS": `},
		{"no providers", `{}`},
		{"provider with no views", `{"AWS": {}}`},
		{"missing dimensions", `{"AWS": {"v1": {"metrics": ["cost"], "category": "core"}}}`},
		{"empty dimensions", `{"AWS": {"v1": {"dimensions": [], "metrics": ["cost"], "category": "core"}}}`},
		{"missing metrics", `{"AWS": {"v1": {"dimensions": ["service"], "category": "core"}}}`},
		{"missing category", `{"AWS": {"v1": {"dimensions": ["service"], "metrics": ["cost"]}}}`},
		{"blank category", `{"AWS": {"v1": {"dimensions": ["service"], "metrics": ["cost"], "category": "  "}}}`},
		{"blank dimension", `{"AWS": {"v1": {"dimensions": [" "], "metrics": ["cost"], "category": "core"}}}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.input))
			require.Error(t, err)
			assert.Equal(t, errs.CodeConfigInvalid, errs.Code(err))
		})
	}
}

func TestViewsSortedByName(t *testing.T) {
	catalog, err := Parse([]byte(`{
		"AWS": {
			"zeta": {"dimensions": ["service"], "metrics": ["cost"], "category": "z"},
			"alpha": {"dimensions": ["service"], "metrics": ["cost"], "category": "a"}
		}
	}`))
	require.NoError(t, err)

	specs := catalog.Views("AWS")
	require.Len(t, specs, 2)
	assert.Equal(t, "alpha", specs[0].Name)
	assert.Equal(t, "zeta", specs[1].Name)
}
