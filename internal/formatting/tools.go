package formatting

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/giantswarm/mcp-toolpool/internal/aggregator"
)

const maxDescriptionWidth = 80

// ToolRow is the serialised form of one catalog entry.
type ToolRow struct {
	Server      string   `json:"server" yaml:"server"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Parameters  []string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Required    []string `json:"required,omitempty" yaml:"required,omitempty"`
}

// ToolRows flattens tool descriptors in catalog order.
func ToolRows(tools []aggregator.ToolDescriptor) []ToolRow {
	rows := make([]ToolRow, 0, len(tools))
	for _, td := range tools {
		params := make([]string, 0, len(td.Tool.InputSchema.Properties))
		for name := range td.Tool.InputSchema.Properties {
			params = append(params, name)
		}
		sort.Strings(params)
		rows = append(rows, ToolRow{
			Server:      td.Server,
			Name:        td.Tool.Name,
			Description: td.Tool.Description,
			Parameters:  params,
			Required:    td.Tool.InputSchema.Required,
		})
	}
	return rows
}

// FormatTools writes the catalog to w in the requested format.
func FormatTools(w io.Writer, tools []aggregator.ToolDescriptor, opts Options) error {
	rows := ToolRows(tools)
	switch opts.Format {
	case FormatJSON:
		_, err := fmt.Fprintln(w, PrettyJSON(rows))
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()
	}

	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, colorize(opts, text.FgYellow, "No tools found"))
		return err
	}

	wide := opts.Format == FormatWide
	t := createTable(w)
	header := table.Row{"SERVER", "TOOL", "DESCRIPTION"}
	if wide {
		header = append(header, "PARAMETERS")
	}
	t.AppendHeader(header)
	for _, r := range rows {
		row := table.Row{
			colorize(opts, text.FgHiCyan, r.Server),
			r.Name,
			truncate(firstLine(r.Description), maxDescriptionWidth),
		}
		if wide {
			row = append(row, formatParameters(r.Parameters, r.Required))
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d tools", len(rows))})
	t.Render()
	return nil
}

// createTable creates a new table with standard styling
func createTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func formatParameters(params, required []string) string {
	req := make(map[string]bool, len(required))
	for _, r := range required {
		req[r] = true
	}
	out := make([]string, 0, len(params))
	for _, p := range params {
		if req[p] {
			p += "*"
		}
		out = append(out, p)
	}
	return strings.Join(out, ", ")
}

func colorize(opts Options, c text.Color, s string) string {
	if !opts.Color {
		return s
	}
	return c.Sprint(s)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
