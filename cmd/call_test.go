package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToolArgs(t *testing.T) {
	args, err := parseToolArgs("")
	require.NoError(t, err)
	assert.Empty(t, args)

	args, err = parseToolArgs(`{"city":"Berlin","days":3}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"city": "Berlin", "days": float64(3)}, args)

	args, err = parseToolArgs("null")
	require.NoError(t, err)
	assert.NotNil(t, args)

	_, err = parseToolArgs(`["not", "an", "object"]`)
	assert.Error(t, err)
}

// withTestConfig points the global flags at a config file serving one
// in-process MCP server and restores them afterwards.
func withTestConfig(t *testing.T) {
	t.Helper()

	s := server.NewMCPServer("weather", "1.0.0", server.WithToolCapabilities(true))
	s.AddTool(mcp.NewTool("forecast", mcp.WithString("city", mcp.Required())),
		func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("sunny in " + req.GetString("city", "")), nil
		})
	ts := server.NewTestStreamableHTTPServer(s)
	t.Cleanup(ts.Close)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("servers:\n  - name: weather\n    url: "+ts.URL+"\n"), 0o600))

	origConfig, origQuiet := configPath, quiet
	t.Cleanup(func() { configPath, quiet = origConfig, origQuiet })
	configPath, quiet = path, true
}

func testCommand(run func(*cobra.Command, []string) error) (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	c := &cobra.Command{RunE: run}
	c.SetOut(&buf)
	c.SetContext(context.Background())
	return c, &buf
}

func TestRunCall(t *testing.T) {
	withTestConfig(t)

	origArgs, origID, origFormat := callArgs, callToolUseID, callOutputFormat
	defer func() { callArgs, callToolUseID, callOutputFormat = origArgs, origID, origFormat }()

	callArgs = `{"city":"Berlin"}`
	callToolUseID = "use-1"
	callOutputFormat = "json"

	c, buf := testCommand(runCall)
	require.NoError(t, runCall(c, []string{"forecast"}))

	var envelope struct {
		ToolResult struct {
			ToolUseID string `json:"toolUseId"`
			Content   []struct {
				Text string `json:"text"`
			} `json:"content"`
			Status string `json:"status"`
		} `json:"toolResult"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &envelope))
	assert.Equal(t, "use-1", envelope.ToolResult.ToolUseID)
	assert.Equal(t, "success", envelope.ToolResult.Status)
	require.Len(t, envelope.ToolResult.Content, 1)
	assert.Equal(t, "sunny in Berlin", envelope.ToolResult.Content[0].Text)
}

func TestRunCall_UnknownTool(t *testing.T) {
	withTestConfig(t)

	origArgs, origID, origFormat := callArgs, callToolUseID, callOutputFormat
	defer func() { callArgs, callToolUseID, callOutputFormat = origArgs, origID, origFormat }()
	callArgs, callToolUseID, callOutputFormat = "", "use-2", "json"

	c, buf := testCommand(runCall)
	require.NoError(t, runCall(c, []string{"tides"}))
	assert.Contains(t, buf.String(), "No server found with tool: tides")
	assert.Contains(t, buf.String(), `"status": "error"`)
}

func TestRunListTools(t *testing.T) {
	withTestConfig(t)

	orig := listOutputFormat
	defer func() { listOutputFormat = orig }()
	listOutputFormat = "json"

	c, buf := testCommand(runListTools)
	require.NoError(t, runListTools(c, nil))

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "weather", rows[0]["server"])
	assert.Equal(t, "forecast", rows[0]["name"])
}

func TestRunListTools_BadFormat(t *testing.T) {
	orig := listOutputFormat
	defer func() { listOutputFormat = orig }()
	listOutputFormat = "xml"

	c, _ := testCommand(runListTools)
	assert.Error(t, runListTools(c, nil))
}
