package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/fivetwenty-io/hexo-client/internal/constants"
	"github.com/fivetwenty-io/hexo-client/pkg/hexo"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

var (
	okLabel   = color.New(color.FgGreen)
	warnLabel = color.New(color.FgYellow)
	errLabel  = color.New(color.FgRed)
)

func isOutputFormat(format string) bool {
	switch format {
	case constants.FormatJSON, constants.FormatYAML, constants.FormatTable:
		return true
	default:
		return false
	}
}

func outputFormat() (string, error) {
	format := viper.GetString("output")
	if format == "" {
		return constants.FormatTable, nil
	}

	if !isOutputFormat(format) {
		return "", fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, format)
	}

	return format, nil
}

func printSuccess(cmd *cobra.Command, format string, args ...interface{}) {
	_, _ = okLabel.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}

func printWarning(cmd *cobra.Command, format string, args ...interface{}) {
	_, _ = warnLabel.Fprintf(cmd.ErrOrStderr(), "Warning: "+format+"\n", args...)
}

// PrintError writes err to w in red.
func PrintError(w io.Writer, err error) {
	_, _ = errLabel.Fprintf(w, "Error: %v\n", err)
}

// renderValue writes any JSON-encodable value. With a query only the gjson
// result is printed.
func renderValue(cmd *cobra.Command, value interface{}, query string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	if query != "" {
		return renderQuery(cmd.OutOrStdout(), value, query)
	}

	switch format {
	case constants.FormatYAML:
		plain, err := toPlain(value)
		if err != nil {
			return err
		}

		return yaml.NewEncoder(cmd.OutOrStdout()).Encode(plain)
	default:
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")

		return encoder.Encode(value)
	}
}

// renderInstances writes instances as a table, JSON array or YAML list.
func renderInstances(cmd *cobra.Command, instances []*hexo.Instance, columns []string, query string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	if query != "" || format != constants.FormatTable {
		return renderValue(cmd, instances, query)
	}

	if len(instances) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No objects found")

		return nil
	}

	if len(columns) == 0 {
		columns = defaultColumns(instances[0])
	}

	header := make([]any, len(columns))
	for i, column := range columns {
		header[i] = column
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header(header...)

	for _, inst := range instances {
		row := make([]string, len(columns))

		for i, column := range columns {
			value, ok := inst.Lookup(column)
			if !ok {
				row[i] = ""

				continue
			}

			row[i] = formatCell(value)
		}

		_ = table.Append(row)
	}

	err = table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// renderInstance writes one instance as a property table or encoded object.
func renderInstance(cmd *cobra.Command, inst *hexo.Instance, query string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	if query != "" || format != constants.FormatTable {
		return renderValue(cmd, inst, query)
	}

	fields := inst.Fields()

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}

	sort.Strings(names)

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Field", "Value")

	for _, name := range names {
		_ = table.Append(name, formatCell(fields[name]))
	}

	err = table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func renderQuery(w io.Writer, value interface{}, query string) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	result := gjson.GetBytes(data, query)
	if !result.Exists() {
		return nil
	}

	if result.IsArray() {
		for _, item := range result.Array() {
			_, _ = fmt.Fprintln(w, item.String())
		}

		return nil
	}

	_, _ = fmt.Fprintln(w, result.String())

	return nil
}

// defaultColumns picks id and resource_uri first, then the remaining
// scalar fields in name order.
func defaultColumns(inst *hexo.Instance) []string {
	var columns []string

	for _, name := range []string{"id", constants.ResourceURIField} {
		if _, ok := inst.Lookup(name); ok {
			columns = append(columns, name)
		}
	}

	var rest []string

	for name, value := range inst.Fields() {
		if name == "id" || name == constants.ResourceURIField {
			continue
		}

		switch value.(type) {
		case map[string]interface{}, []interface{}:
			continue
		}

		rest = append(rest, name)
	}

	sort.Strings(rest)

	return append(columns, rest...)
}

func formatCell(value interface{}) string {
	var cell string

	switch v := value.(type) {
	case nil:
		cell = ""
	case string:
		cell = v
	case *hexo.Instance:
		cell = v.ResourceURI()
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(v)
		if err != nil {
			cell = fmt.Sprint(v)
		} else {
			cell = string(data)
		}
	default:
		cell = fmt.Sprint(v)
	}

	if len(cell) > constants.MaxCellWidth {
		cell = cell[:constants.MaxCellWidth-3] + "..."
	}

	return strings.ReplaceAll(cell, "\n", " ")
}

// toPlain round-trips value through JSON so YAML output matches the JSON
// field names.
func toPlain(value interface{}) (interface{}, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}

	var plain interface{}

	err = json.Unmarshal(data, &plain)
	if err != nil {
		return nil, fmt.Errorf("failed to decode output: %w", err)
	}

	return plain, nil
}
