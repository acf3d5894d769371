package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/perch/internal/adapter/output"
	"github.com/jmylchreest/perch/internal/core"
	"github.com/jmylchreest/perch/internal/dbus"
)

var listOpts struct {
	format   string
	template string
	field    string
	noIndex  bool
	filter   string
	sort     string
	order    string
	limit    int
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List floating widgets",
	Long: `List the daemon's widgets from bottom to top.

Formats: plain (default), json, yaml, dmenu (newest first, one per line)
and ids. --field prints a single field of the top widget, for scripts.

Filter fields: state, locked, opacity, x, y, touched, age
Filter examples: "state=locked", "y<300", "touched>5m,opacity<1"

Template fields: .Index .Widget .Age .Touched
Template funcs: state, percent, coords`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listOpts.format, "format", "f", string(output.FormatPlain),
		"Output format (plain, json, yaml, dmenu, ids)")
	listCmd.Flags().StringVar(&listOpts.template, "template", "",
		"Go template for plain and dmenu output")
	listCmd.Flags().StringVar(&listOpts.field, "field", "",
		"Print one field of the top widget (id, short, x, y, position, locked, opacity, state)")
	listCmd.Flags().BoolVar(&listOpts.noIndex, "no-index", false,
		"Omit the index prefix")
	listCmd.Flags().StringVar(&listOpts.filter, "filter", "",
		"Filter expression (comma-separated conditions)")
	listCmd.Flags().StringVar(&listOpts.sort, "sort", string(core.SortByStack),
		"Sort by field (stack, touched, opacity, y)")
	listCmd.Flags().StringVar(&listOpts.order, "order", string(core.SortAsc),
		"Sort order (asc, desc)")
	listCmd.Flags().IntVarP(&listOpts.limit, "limit", "n", 0,
		"Maximum widgets to show (0 = all)")
}

func runList(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(listOpts.format)
	if err != nil {
		return err
	}
	filter, err := core.ParseFilter(listOpts.filter)
	if err != nil {
		return err
	}
	field, err := core.ParseSortField(listOpts.sort)
	if err != nil {
		return err
	}
	order, err := core.ParseSortOrder(listOpts.order)
	if err != nil {
		return err
	}

	return withDaemon(func(ctx context.Context, c *dbus.Client) error {
		widgets, err := c.Widgets(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if listOpts.field != "" {
			top := core.Top(core.FilterWithExpr(widgets, filter))
			if top == nil {
				return fmt.Errorf("no widgets")
			}
			_, err := fmt.Fprintln(out, output.FormatField(*top, listOpts.field))
			return err
		}

		widgets = core.FilterWithExpr(widgets, filter)
		core.Sort(widgets, core.SortOptions{Field: field, Order: order})
		widgets = core.Limit(widgets, listOpts.limit)

		opts := output.DefaultFormatterOptions()
		opts.Template = listOpts.template
		opts.ShowIndex = !listOpts.noIndex
		return output.NewFormatter(format, opts).Format(out, widgets)
	})
}
