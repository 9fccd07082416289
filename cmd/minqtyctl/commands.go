package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/minquantity-rule/example/salesdoc"
	"github.com/AntonStoeckl/minquantity-rule/quantityrule"
	"github.com/AntonStoeckl/minquantity-rule/quantityrule/catalogengine"
	"github.com/AntonStoeckl/minquantity-rule/quantityrule/zapadapters"
)

var errInvalidQuantityArgument = errors.New("not a positive decimal quantity")

func newSchemaCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create the article table when it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, closeCatalog, err := app.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCatalog()

			return catalog.EnsureSchema(cmd.Context())
		},
	}
}

func newLookupCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <article>",
		Short: "Print the stored minimum quantity of an article and how the rule reads it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, closeCatalog, err := app.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCatalog()

			result, err := catalog.Query(cmd.Context(), quantityrule.LookupQuery(args[0]))
			if err != nil {
				return err
			}

			if result.IsEmpty() {
				return fmt.Errorf("%w: %s", quantityrule.ErrArticleNotFound, args[0])
			}

			raw, err := result.Value(quantityrule.ColumnMinimumQuantity)
			if err != nil {
				return err
			}

			fallback, err := app.cfg.FallbackFormat()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if raw == nil {
				_, err = fmt.Fprintf(out, "%s\t<null>\tno rule\n", args[0])
				return err
			}

			threshold, ok := quantityrule.ParseThreshold(raw, fallback)
			switch {
			case !ok:
				_, err = fmt.Fprintf(out, "%s\t%v\tunparsable\n", args[0], raw)
			case threshold <= 0:
				_, err = fmt.Fprintf(out, "%s\t%v\tignored (not positive)\n", args[0], raw)
			default:
				_, err = fmt.Fprintf(out, "%s\t%v\t%s\n", args[0], raw, formatQuantity(threshold))
			}

			return err
		},
	}
}

func newSetCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "set <article> <quantity>",
		Short: "Store the minimum quantity of an article",
		Long: `Stores the minimum quantity of an article, adding the article when it is unknown.
The quantity is read with the decimal point first, then in the configured locale.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fallback, err := app.cfg.FallbackFormat()
			if err != nil {
				return err
			}

			quantity, err := parseQuantity(args[1], fallback)
			if err != nil {
				return err
			}

			catalog, closeCatalog, err := app.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCatalog()

			return catalog.SetMinimumQuantity(cmd.Context(), args[0], quantity)
		},
	}
}

func newClearCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <article>",
		Short: "Remove the minimum quantity of an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, closeCatalog, err := app.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCatalog()

			return catalog.ClearMinimumQuantity(cmd.Context(), args[0])
		},
	}
}

func newListCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all articles with a minimum quantity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fallback, err := app.cfg.FallbackFormat()
			if err != nil {
				return err
			}

			catalog, closeCatalog, err := app.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCatalog()

			quantities, err := catalog.MinimumQuantities(cmd.Context())
			if err != nil {
				return err
			}

			return writeMinimumQuantities(cmd.OutOrStdout(), quantities, fallback)
		},
	}
}

func newImportCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Store minimum quantities from an article,min_quantity CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fallback, err := app.cfg.FallbackFormat()
			if err != nil {
				return err
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open import file %s: %w", args[0], err)
			}
			defer file.Close()

			rows, err := readImportRows(file, fallback)
			if err != nil {
				return err
			}

			catalog, closeCatalog, err := app.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCatalog()

			for _, row := range rows {
				if setErr := catalog.SetMinimumQuantity(cmd.Context(), row.article, row.quantity); setErr != nil {
					return fmt.Errorf("import row %d (%s): %w", row.line, row.article, setErr)
				}
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d articles\n", len(rows))
			return err
		},
	}
}

func newEvaluateCmd(app *cli) *cobra.Command {
	var quantity float64
	var forceAlways bool

	cmd := &cobra.Command{
		Use:   "evaluate <article>",
		Short: "Run the minimum-quantity rule on a one-line sales document",
		Long: `Builds an in-memory sales document with one line for the article, raises
the article-identified event for it and prints the outcome and the resulting quantity.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("force-always") {
				app.cfg.ForceAlways = &forceAlways
			}

			policy, err := app.cfg.Policy()
			if err != nil {
				return err
			}

			catalog, closeCatalog, err := app.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCatalog()

			line := salesdoc.NewLine(args[0], quantity)
			logger := zapadapters.NewLogger(app.logger)

			handler, err := quantityrule.NewHandler(
				salesdoc.NewEditor(salesdoc.NewDocument(line)),
				catalog,
				policy,
				quantityrule.WithContextualLogger(logger),
				quantityrule.WithMetrics(app.telemetry.Metrics),
				quantityrule.WithTracing(app.telemetry.TracingCollector(serviceName)),
			)
			if err != nil {
				return err
			}

			outcome := handler.ArticleIdentified(cmd.Context(), quantityrule.ArticleIdentifiedEvent{
				Article:   args[0],
				LineIndex: 0,
			})

			after, err := line.Quantity()
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "outcome=%s quantity=%s\n", outcome, formatQuantity(after))
			return err
		},
	}

	cmd.Flags().Float64Var(&quantity, "quantity", 0, "quantity already on the line")
	cmd.Flags().BoolVar(&forceAlways, "force-always", false, "overwrite whatever quantity the line holds")

	return cmd
}

func parseQuantity(text string, fallback quantityrule.NumberFormat) (decimal.Decimal, error) {
	value, ok := quantityrule.ParseThreshold(text, fallback)
	if !ok || value <= 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", errInvalidQuantityArgument, text)
	}

	return decimal.NewFromFloat(value), nil
}

func formatQuantity(quantity float64) string {
	return decimal.NewFromFloat(quantity).String()
}

func writeMinimumQuantities(out io.Writer, quantities []catalogengine.MinimumQuantity, fallback quantityrule.NumberFormat) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "ARTICLE\tSTORED\tTHRESHOLD")
	for _, q := range quantities {
		threshold := "unusable"
		if v, ok := q.Threshold(fallback); ok && v > 0 {
			threshold = formatQuantity(v)
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", q.Article, q.RawValue, threshold)
	}

	return w.Flush()
}
