package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fivetwenty-io/hexo-client/internal/constants"
	"github.com/fivetwenty-io/hexo-client/pkg/hexo"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NewResourcesCommand creates the resources command.
func NewResourcesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resources",
		Aliases: []string{"resource", "res"},
		Short:   "List discovered resources",
		Long:    "List every resource the API exposes with the methods its list and detail endpoints allow",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := createClient(ctx, cmd)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			names, err := client.Resources(ctx)
			if err != nil {
				return fmt.Errorf("failed to discover resources: %w", err)
			}

			descriptors := make([]*hexo.Descriptor, 0, len(names))

			for _, name := range names {
				descriptor, err := client.Descriptor(ctx, name)
				if err != nil {
					return fmt.Errorf("failed to describe %s: %w", name, err)
				}

				descriptors = append(descriptors, descriptor)
			}

			format, err := outputFormat()
			if err != nil {
				return err
			}

			if format != constants.FormatTable {
				return renderValue(cmd, descriptors, "")
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Name", "List Endpoint", "List Methods", "Detail Methods")

			for _, descriptor := range descriptors {
				_ = table.Append(
					descriptor.Name,
					descriptor.ListEndpoint,
					strings.Join(descriptor.AllowedListHTTPMethods, ","),
					strings.Join(descriptor.AllowedDetailHTTPMethods, ","),
				)
			}

			err = table.Render()
			if err != nil {
				return fmt.Errorf("failed to render table: %w", err)
			}

			return nil
		},
	}

	cmd.AddCommand(newResourcesDescribeCommand())

	return cmd
}

func newResourcesDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe RESOURCE",
		Short: "Describe a resource",
		Long:  "Show the fields, filters and allowed methods of a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := createClient(ctx, cmd)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			descriptor, err := client.Descriptor(ctx, args[0])
			if err != nil {
				return err
			}

			format, err := outputFormat()
			if err != nil {
				return err
			}

			if format != constants.FormatTable {
				return renderValue(cmd, descriptor, "")
			}

			return renderDescriptorTable(cmd, descriptor)
		},
	}
}

func renderDescriptorTable(cmd *cobra.Command, descriptor *hexo.Descriptor) error {
	out := cmd.OutOrStdout()

	title := cases.Title(language.English).String(strings.ReplaceAll(descriptor.Name, "_", " "))
	_, _ = fmt.Fprintf(out, "%s (%s)\nList endpoint: %s\n", title, descriptor.Name, descriptor.ListEndpoint)

	methods := tablewriter.NewWriter(out)
	methods.Header("Method", "List", "Detail")

	for _, method := range []string{hexo.MethodGet, hexo.MethodPost, hexo.MethodPut, hexo.MethodPatch, hexo.MethodDelete} {
		_ = methods.Append(
			strings.ToUpper(method),
			checkMark(descriptor.Allows(hexo.AccessList, method)),
			checkMark(descriptor.Allows(hexo.AccessDetail, method)),
		)
	}

	err := methods.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	if len(descriptor.Fields) == 0 {
		return nil
	}

	names := make([]string, 0, len(descriptor.Fields))
	for name := range descriptor.Fields {
		names = append(names, name)
	}

	sort.Strings(names)

	fields := tablewriter.NewWriter(out)
	fields.Header("Field", "Type", "Filterable")

	for _, name := range names {
		fieldType := constants.NotAvailable

		if field, ok := descriptor.Fields[name].(map[string]interface{}); ok {
			if value, ok := field["type"].(string); ok {
				fieldType = value
			}
		}

		_, filterable := descriptor.Filtering[name]
		_ = fields.Append(name, fieldType, checkMark(filterable))
	}

	err = fields.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func checkMark(ok bool) string {
	if ok {
		return constants.CheckMarkSymbol
	}

	return ""
}

// NewCacheCommand creates the cache command group.
func NewCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the schema cache",
		Long:  "Inspect and clear the locally cached API schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Clear the schema cache",
		Long:  "Delete the cached schema so the next command rediscovers every resource",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := createClient(ctx, cmd)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			err = client.ClearResourceCache(ctx)
			if err != nil {
				return err
			}

			printSuccess(cmd, "Schema cache cleared")

			return nil
		},
	})

	return cmd
}
