package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/razao/internal/config"
	"github.com/ginjaninja78/razao/internal/converter"
	"github.com/ginjaninja78/razao/internal/ledger"
)

// classifyCmd prints the decision taken for every source row. It is the
// tool to check a header rule against a new export before processing it.
var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Show how each row of a ledger file is classified",
	Example: `  razao classify --file razao.csv
  razao classify --file razao.xlsx --header-rule contains`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if filePath == "" {
			return fmt.Errorf("--file is required")
		}
		cfg := appConfig
		if headerRule != "" {
			cfg.Ledger.HeaderRule = headerRule
		}

		profiles, err := config.LoadProfiles(cfg.Paths.ProfilesDir)
		if err != nil {
			return fmt.Errorf("failed to load profiles: %w", err)
		}
		opts, err := converter.OptionsFor(cfg, config.FindProfile(profiles, filePath))
		if err != nil {
			return err
		}
		conv, err := converter.New(opts)
		if err != nil {
			return err
		}

		decisions, err := conv.Explain(cmd.Context(), filePath)
		if err != nil {
			return err
		}
		printDecisions(cmd.OutOrStdout(), decisions)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().StringVarP(&filePath, "file", "f", "", "Ledger file to classify")
	classifyCmd.Flags().StringVar(&headerRule, "header-rule", "", "Account header rule: prefix or contains (default from config)")
}

var kindColor = map[ledger.Kind]*color.Color{
	ledger.Header:      color.New(color.FgCyan, color.Bold),
	ledger.Transaction: color.New(color.FgGreen),
	ledger.Skip:        color.New(color.FgHiBlack),
}

func printDecisions(out io.Writer, decisions []ledger.Decision) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tKIND\tACCOUNT / REASON\tTEXT")

	counts := make(map[ledger.Kind]int)
	for _, d := range decisions {
		counts[d.Kind]++

		detail := d.Account
		if d.Kind == ledger.Skip {
			detail = d.Reason.String()
			if d.Reason == ledger.NotSkipped {
				detail = "rejected: before first header"
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", d.Row, kindColor[d.Kind].Sprint(d.Kind), detail, truncate(d.Text, 60))
	}
	tw.Flush()

	fmt.Fprintf(out, "\n%d header(s), %d transaction(s), %d skipped\n",
		counts[ledger.Header], counts[ledger.Transaction], counts[ledger.Skip])
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
