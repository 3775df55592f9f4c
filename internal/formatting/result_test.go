package formatting

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/mcp-toolpool/internal/aggregator"
)

func notFoundResult() aggregator.ToolResult {
	return aggregator.ToolResult{ToolResult: aggregator.ToolResultBody{
		ToolUseID: "id-1",
		Content:   []aggregator.ContentBlock{{Text: "No server found with tool: nope"}},
		Status:    aggregator.StatusError,
	}}
}

func TestFormatToolResult_JSONEnvelope(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatToolResult(&buf, notFoundResult(), Options{Format: FormatJSON}))

	var decoded map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	body := decoded["toolResult"]
	assert.Equal(t, "id-1", body["toolUseId"])
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, []interface{}{map[string]interface{}{"text": "No server found with tool: nope"}}, body["content"])
}

func TestFormatToolResult_Text(t *testing.T) {
	result := aggregator.ToolResult{ToolResult: aggregator.ToolResultBody{
		ToolUseID: "id-2",
		Content:   []aggregator.ContentBlock{{Text: "line one"}, {Text: "line two"}},
		Status:    aggregator.StatusSuccess,
	}}

	var buf bytes.Buffer
	require.NoError(t, FormatToolResult(&buf, result, Options{Format: FormatTable}))
	assert.Equal(t, "line one\nline two\n", buf.String())
}

func TestFormatToolResult_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatToolResult(&buf, notFoundResult(), Options{Format: FormatYAML}))
	assert.Contains(t, buf.String(), "toolUseId: id-1")
	assert.Contains(t, buf.String(), "status: error")
}
