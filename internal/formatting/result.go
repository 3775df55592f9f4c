package formatting

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/giantswarm/mcp-toolpool/internal/aggregator"
)

// FormatToolResult writes a dispatched tool result. JSON prints the
// envelope verbatim; table and wide print the text blocks.
func FormatToolResult(w io.Writer, result aggregator.ToolResult, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		_, err := fmt.Fprintln(w, PrettyJSON(result))
		return err
	case FormatYAML:
		return yaml.NewEncoder(w).Encode(result)
	}

	body := strings.Join(result.Text(), "\n")
	if result.IsError() {
		body = colorize(opts, text.FgRed, body)
	}
	_, err := fmt.Fprintln(w, body)
	return err
}
