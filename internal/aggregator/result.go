package aggregator

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-toolpool/internal/mcpserver"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ToolResult is the envelope every dispatched call produces, whether the tool
// succeeded, failed remotely or was not found.
type ToolResult struct {
	ToolResult ToolResultBody `json:"toolResult" yaml:"toolResult"`
}

// ToolResultBody is the payload of a ToolResult.
type ToolResultBody struct {
	ToolUseID string         `json:"toolUseId" yaml:"toolUseId"`
	Content   []ContentBlock `json:"content" yaml:"content"`
	Status    string         `json:"status" yaml:"status"`
}

// ContentBlock is one piece of tool output.
type ContentBlock struct {
	Text string `json:"text" yaml:"text"`
}

// IsError reports whether the call failed.
func (r ToolResult) IsError() bool {
	return r.ToolResult.Status == StatusError
}

// Text returns the text of every content block.
func (r ToolResult) Text() []string {
	texts := make([]string, 0, len(r.ToolResult.Content))
	for _, block := range r.ToolResult.Content {
		texts = append(texts, block.Text)
	}
	return texts
}

func newToolResult(toolUseID string, result *mcpserver.CallResult) ToolResult {
	status := StatusSuccess
	if result.IsError {
		status = StatusError
	}
	blocks := make([]ContentBlock, 0, len(result.Content))
	for _, content := range result.Content {
		blocks = append(blocks, contentBlock(content))
	}
	return ToolResult{ToolResult: ToolResultBody{ToolUseID: toolUseID, Content: blocks, Status: status}}
}

func errorToolResult(toolUseID string, err error) ToolResult {
	return ToolResult{ToolResult: ToolResultBody{
		ToolUseID: toolUseID,
		Content:   []ContentBlock{{Text: err.Error()}},
		Status:    StatusError,
	}}
}

// contentBlock flattens MCP content to text. Non-text content is kept as
// its JSON encoding.
func contentBlock(content mcp.Content) ContentBlock {
	if text, ok := mcp.AsTextContent(content); ok {
		return ContentBlock{Text: text.Text}
	}
	encoded, err := json.Marshal(content)
	if err != nil {
		return ContentBlock{Text: err.Error()}
	}
	return ContentBlock{Text: string(encoded)}
}
