package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/webmodes/filter"
	"github.com/s0up4200/webmodes/webmode"
)

var (
	filterExpr string
	preset     string
	categories []string
)

// torrentsCmd represents the torrents command
var torrentsCmd = &cobra.Command{
	Use:   "torrents",
	Short: "List qBittorrent torrents with their detail page URLs",
	Long: `List torrents from qBittorrent, optionally restricted to categories and
a filter expression, and resolve the comment of each one.

Filter examples:
  hasComment() and not resolvable()
  Category == "movies" and Ratio < 1 and daysSince(AddedOn) > 30
  mode() == "M-Team"`,
	PreRunE: initializeApp,
	RunE:    runTorrents,
}

// categoriesCmd represents the categories command
var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Short:   "List qBittorrent categories",
	PreRunE: initializeApp,
	RunE:    runCategories,
}

func init() {
	rootCmd.AddCommand(torrentsCmd)
	rootCmd.AddCommand(categoriesCmd)

	torrentsCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	torrentsCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
	torrentsCmd.Flags().StringSliceVarP(&categories, "category", "c", nil, "only list torrents in these categories")
}

func runTorrents(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	expr, err := getFilterExpression()
	if err != nil {
		return err
	}

	compiled, err := filter.Parse(filter.NewExprCompiler(filter.WithResolver(resolver)), expr)
	if err != nil {
		return fmt.Errorf("invalid filter expression: %w", err)
	}

	client, err := newQBClient(ctx)
	if err != nil {
		return err
	}

	cats := categories
	if len(cats) == 0 {
		cats = cfg.QBittorrent.Categories
	}

	logger.Info().Str("filter", expr).Strs("categories", cats).Msg("Listing torrents")

	torrents, err := client.ListTorrents(ctx, cats)
	if err != nil {
		return err
	}

	matches, err := filter.NewConcurrentEvaluator().Evaluate(ctx, compiled, torrents)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(matches) == 0 {
		fmt.Fprintln(out, "No torrents found matching the filter criteria.")
		return nil
	}

	fmt.Fprintf(out, "\nFound %d torrents:\n", len(matches))
	fmt.Fprintln(out, strings.Repeat("-", 80))

	var resolved int
	for _, t := range matches {
		fmt.Fprintf(out, "• %s [%s]\n", t.Name, t.Category)
		fmt.Fprintf(out, "  Path: %s\n", t.GetFullPath())

		res, err := resolver.Resolve(t.Comment)
		var te *webmode.TemplateError
		switch {
		case err == nil:
			resolved++
			fmt.Fprintf(out, "  %s (%s)\n", res.URL, res.Rule)
		case errors.As(err, &te):
			fmt.Fprintf(out, "  ! %v\n", te)
		case t.HasComment():
			fmt.Fprintf(out, "  Comment: %s\n", t.Comment)
		}
	}

	fmt.Fprintf(out, "\n%d of %d resolved\n", resolved, len(matches))
	return nil
}

func runCategories(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, err := newQBClient(ctx)
	if err != nil {
		return err
	}

	names, err := client.ListCategories(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintln(out, "No categories found.")
		return nil
	}
	for _, name := range names {
		fmt.Fprintf(out, "• %s\n", name)
	}
	return nil
}

// getFilterExpression determines the filter expression to use
func getFilterExpression() (string, error) {
	// Priority: command line filter > preset > default
	if filterExpr != "" {
		return filterExpr, nil
	}

	if preset != "" {
		if expr, ok := cfg.Filter.Presets[preset]; ok {
			return expr, nil
		}
		return "", fmt.Errorf("preset '%s' not found in config", preset)
	}

	return cfg.Filter.Default, nil
}
