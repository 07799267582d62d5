package save_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/geomanifest/pkg/errors"
	"github.com/agentstation/geomanifest/pkg/save"
)

type doc struct {
	Zeta  string `json:"zeta"`
	Alpha string `json:"alpha"`
}

func TestMarshalJSON(t *testing.T) {
	data, err := save.Marshal(doc{Zeta: "Скважины <a&b>", Alpha: "x"})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"zeta\": \"Скважины <a&b>\",\n  \"alpha\": \"x\"\n}\n", string(data))

	data, err = save.Marshal(doc{}, save.WithIndent(""))
	require.NoError(t, err)
	assert.Equal(t, "{\"zeta\":\"\",\"alpha\":\"\"}\n", string(data))
}

func TestMarshalYAMLKeepsKeyOrder(t *testing.T) {
	data, err := save.Marshal(doc{Zeta: "z", Alpha: "a"}, save.WithFormat(save.FormatYAML))
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "zeta: z")
	assert.Contains(t, out, "alpha: a")
	assert.Less(t, bytes.Index(data, []byte("zeta")), bytes.Index(data, []byte("alpha")))
}

func TestMarshalInvalidFormat(t *testing.T) {
	_, err := save.Marshal(doc{}, save.WithFormat(save.Format(9)))
	assert.True(t, errors.IsValidationError(err))
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, save.Write(doc{Alpha: "a"}, save.WithWriter(&buf)))
	assert.Contains(t, buf.String(), `"alpha": "a"`)

	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, save.Write(doc{Alpha: "a"}, save.WithPath(path)))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, buf.String(), string(data))

	err = save.Write(doc{})
	assert.True(t, errors.IsValidationError(err))
}
