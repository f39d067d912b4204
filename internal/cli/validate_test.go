package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validTaxonomyYAML = `
events:
  - name: ta_app_start
  - name: stage_clear
    properties:
      - name: stage_id
        type: string
      - name: clear time
        type: number
common_properties:
  - name: channel
    type: string
`

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateCommandValid(t *testing.T) {
	path := writeTempFile(t, "taxonomy.yaml", validTaxonomyYAML)

	out, _, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Valid taxonomy")
	assert.Contains(t, out, "2 events")
	// "clear time" carries a space and gets renamed.
	assert.Contains(t, out, "clear time -> clear_time")
}

func TestValidateCommandJSON(t *testing.T) {
	path := writeTempFile(t, "taxonomy.yaml", validTaxonomyYAML)

	out, _, err := execute(t, "--format", "json", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"status":"ok"`)
	assert.Contains(t, out, `"valid":true`)
	assert.Contains(t, out, `"content_hash"`)
}

func TestValidateCommandEmptyTaxonomy(t *testing.T) {
	path := writeTempFile(t, "taxonomy.yaml", "events: []\n")

	_, _, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestValidateCommandMissingFile(t *testing.T) {
	_, _, err := execute(t, "validate", "/nonexistent/taxonomy.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
