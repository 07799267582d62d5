package aprx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/geomanifest/pkg/aprx"
)

func TestParseToolbox(t *testing.T) {
	path := writeZip(t, "tools.atbx",
		member{"toolbox.content", `{"version": "1.0", "alias": "geotools", "displayname": "Геообработка"}`},
		member{"Buffer.tool/", ""},
		member{"Buffer.tool/tool.content", `{"displayname": "Буфер скважин"}`},
		member{"Clip.tool/tool.script.execute.py", "print()"},
		member{"nested/Deep.tool/tool.content", `{}`},
		member{"readme.txt", "x"},
	)

	tb, err := aprx.ParseToolbox(path)
	require.NoError(t, err)
	assert.Equal(t, "Геообработка", tb.Name)
	assert.Equal(t, "geotools", tb.Alias)
	assert.Equal(t, []aprx.Tool{
		{Name: "Buffer", DisplayName: "Буфер скважин"},
		{Name: "Clip"},
	}, tb.Tools)
}

func TestParseToolboxWithoutContent(t *testing.T) {
	path := writeZip(t, "bare.atbx", member{"Only.tool/tool.content", `not json`})
	tb, err := aprx.ParseToolbox(path)
	require.NoError(t, err)
	assert.Empty(t, tb.Name)
	assert.Equal(t, []aprx.Tool{{Name: "Only"}}, tb.Tools)
}
