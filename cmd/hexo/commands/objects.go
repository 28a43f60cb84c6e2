package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fivetwenty-io/hexo-client/internal/constants"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var (
		filters []string
		columns []string
		limit   int
		all     bool
		query   string
	)

	cmd := &cobra.Command{
		Use:     "list RESOURCE",
		Aliases: []string{"ls"},
		Short:   "List objects of a resource",
		Long:    "List objects of a resource, optionally filtered and across every page",
		Example: `  hexo list record --filter user=/api/v1/user/12/ --limit 50
  hexo list datatype --all --output json --query '#.name'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseFilters(filters)
			if err != nil {
				return err
			}

			if limit > 0 {
				params["limit"] = limit
			}

			ctx := cmd.Context()

			client, err := createClient(ctx, cmd)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			accessor, err := client.Resource(ctx, args[0])
			if err != nil {
				return err
			}

			list, err := accessor.List(ctx, params)
			if err != nil {
				return err
			}

			instances := list.Objects()
			if all {
				instances, err = list.All(ctx)
				if err != nil {
					return err
				}
			} else if list.HasNext() {
				if total, ok := list.TotalCount(); ok {
					printWarning(cmd, "showing %d of %d objects, use --all to fetch every page", len(instances), total)
				}
			}

			return renderInstances(cmd, instances, columns, query)
		},
	}

	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "filter as KEY=VALUE (repeatable)")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to show in table output")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "page size")
	cmd.Flags().BoolVar(&all, "all", false, "fetch every page")
	cmd.Flags().StringVarP(&query, "query", "q", "", "gjson path applied to the JSON result")

	return cmd
}

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "get RESOURCE ID_OR_URI",
		Short: "Get one object",
		Long:  "Fetch a single object by numeric id or resource URI",
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := createClient(ctx, cmd)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			accessor, err := client.Resource(ctx, args[0])
			if err != nil {
				return err
			}

			inst, err := accessor.Get(ctx, args[1])
			if err != nil {
				return err
			}

			return renderInstance(cmd, inst, query)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "gjson path applied to the JSON result")

	return cmd
}

// NewCreateCommand creates the create command.
func NewCreateCommand() *cobra.Command {
	var (
		data  string
		sets  []string
		query string
	)

	cmd := &cobra.Command{
		Use:   "create RESOURCE",
		Short: "Create an object",
		Long:  "Create an object from a JSON document and/or KEY=VALUE assignments",
		Example: `  hexo create range --set name=sleep --set start=2024-01-01T22:00:00 --set user=/api/v1/user/12/
  hexo create range --data @range.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := buildBody(data, sets)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			client, err := createClient(ctx, cmd)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			accessor, err := client.Resource(ctx, args[0])
			if err != nil {
				return err
			}

			inst, err := accessor.Create(ctx, body)
			if err != nil {
				return err
			}

			if len(inst.Fields()) == 0 {
				printSuccess(cmd, "Created %s", args[0])

				return nil
			}

			return renderInstance(cmd, inst, query)
		},
	}

	addBodyFlags(cmd, &data, &sets)
	cmd.Flags().StringVarP(&query, "query", "q", "", "gjson path applied to the JSON result")

	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand() *cobra.Command {
	var (
		data  string
		sets  []string
		query string
	)

	cmd := &cobra.Command{
		Use:   "update RESOURCE ID_OR_URI",
		Short: "Update an object",
		Long:  "Fetch an object, apply the given fields and write it back with PUT",
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := buildBody(data, sets)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			client, err := createClient(ctx, cmd)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			accessor, err := client.Resource(ctx, args[0])
			if err != nil {
				return err
			}

			inst, err := accessor.Get(ctx, args[1])
			if err != nil {
				return err
			}

			err = inst.Update(ctx, body)
			if err != nil {
				return err
			}

			return renderInstance(cmd, inst, query)
		},
	}

	addBodyFlags(cmd, &data, &sets)
	cmd.Flags().StringVarP(&query, "query", "q", "", "gjson path applied to the JSON result")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete RESOURCE ID_OR_URI",
		Short: "Delete an object",
		Long:  "Delete a single object by numeric id or resource URI",
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force && !confirm(cmd, fmt.Sprintf("Delete %s %s?", args[0], args[1])) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aborted")

				return nil
			}

			ctx := cmd.Context()

			client, err := createClient(ctx, cmd)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			accessor, err := client.Resource(ctx, args[0])
			if err != nil {
				return err
			}

			inst, err := accessor.Get(ctx, args[1])
			if err != nil {
				return err
			}

			uri := inst.ResourceURI()

			err = inst.Delete(ctx)
			if err != nil {
				return err
			}

			printSuccess(cmd, "Deleted %s", uri)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "delete without confirmation")

	return cmd
}

// NewPatchCommand creates the patch command.
func NewPatchCommand() *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "patch RESOURCE",
		Short: "Bulk create or update objects",
		Long:  "Send a JSON array of objects to the resource's list endpoint with PATCH",
		Example: `  hexo patch range --data '[{"name":"a","user":"/api/v1/user/12/"}]'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readData(data)
			if err != nil {
				return err
			}

			if raw == nil {
				return constants.ErrNoData
			}

			var objects []map[string]interface{}

			err = json.Unmarshal(raw, &objects)
			if err != nil {
				return fmt.Errorf("failed to parse data as a JSON array of objects: %w", err)
			}

			ctx := cmd.Context()

			client, err := createClient(ctx, cmd)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			accessor, err := client.Resource(ctx, args[0])
			if err != nil {
				return err
			}

			resp, err := accessor.Patch(ctx, objects)
			if err != nil {
				return err
			}

			printSuccess(cmd, "Patched %d %s objects (HTTP %d)", len(objects), args[0], resp.StatusCode)

			return nil
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON array, or @FILE to read it from a file")

	return cmd
}

func addBodyFlags(cmd *cobra.Command, data *string, sets *[]string) {
	cmd.Flags().StringVarP(data, "data", "d", "", "JSON object, or @FILE to read it from a file")
	cmd.Flags().StringArrayVarP(sets, "set", "s", nil, "field as KEY=VALUE; VALUE is parsed as JSON when possible (repeatable)")
}

// buildBody merges the --data document with --set assignments, which win.
func buildBody(data string, sets []string) (map[string]interface{}, error) {
	raw, err := readData(data)
	if err != nil {
		return nil, err
	}

	body := make(map[string]interface{})

	if raw != nil {
		err = json.Unmarshal(raw, &body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse data as a JSON object: %w", err)
		}
	}

	for _, set := range sets {
		key, value, ok := strings.Cut(set, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %s", constants.ErrInvalidAssignment, set)
		}

		body[key] = parseValue(value)
	}

	if raw == nil && len(sets) == 0 {
		return nil, constants.ErrNoData
	}

	return body, nil
}

// readData returns the inline document or the contents of @FILE.
func readData(data string) ([]byte, error) {
	if data == "" {
		return nil, nil
	}

	path, isFile := strings.CutPrefix(data, "@")
	if !isFile {
		return []byte(data), nil
	}

	// #nosec G304 -- the path is supplied by the user running the CLI
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	return contents, nil
}

func parseFilters(filters []string) (map[string]interface{}, error) {
	params := make(map[string]interface{}, len(filters))

	for _, filter := range filters {
		key, value, ok := strings.Cut(filter, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %s", constants.ErrInvalidFilter, filter)
		}

		params[key] = value
	}

	return params, nil
}

// parseValue decodes JSON scalars, arrays and objects. Anything else is a
// plain string.
func parseValue(value string) interface{} {
	var parsed interface{}

	err := json.Unmarshal([]byte(value), &parsed)
	if err != nil {
		return value
	}

	return parsed
}
