package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/darmiel/tokenizer/internal/core"
	"github.com/darmiel/tokenizer/internal/engine"
)

var (
	whySubject       string
	whySource        string
	whyAttributes    []string
	whyConsumer      string
	whyFunctional    string
	whyRefreshWindow time.Duration
	whyRuleFilter    string
)

var whyCmd = &cobra.Command{
	Use:   "why",
	Short: "Explain why a request is allowed (or denied) by the policy rules",
	Long: `Evaluates the policy rules of the config file against a simulated identity and request
and prints the outcome of every rule. No directory lookup is made.`,
	Example: `  # Why is alice denied for consumer C1?
  tokenizer why -c tokenizer.yaml --subject alice --consumer C1 --functional F1 --attr memberOf=staff

  # Only show the 'admins-only' rule
  tokenizer why -c tokenizer.yaml --subject alice --consumer C1 --rule admins-only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := f.LoadConfig()
		if err != nil {
			return err
		}
		eng, err := engine.New(cfg.Policy.Rules)
		if err != nil {
			return logError(err, "", "failed to compile policy rules")
		}

		attrs, err := parseAttributes(whyAttributes)
		if err != nil {
			return err
		}
		identity := core.Identity{
			Verified:   true,
			Subject:    whySubject,
			Source:     whySource,
			Attributes: attrs,
		}
		req := core.CredentialRequest{
			ConsumerID:    whyConsumer,
			FunctionalID:  whyFunctional,
			RefreshWindow: int(whyRefreshWindow / time.Second),
		}

		allowed, deniedBy := eng.Allow(identity, req)
		printTrace(identity, eng.Evaluate(identity, req), allowed, deniedBy)
		return nil
	},
}

func printTrace(identity core.Identity, results []engine.RuleResult, allowed bool, deniedBy string) {
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Printf("\n%s for Subject: %s (Source: %s)\n",
		bold("Evaluation Trace"),
		bold(identity.Subject),
		identity.Source)

	fmt.Println(faint("---------------------------------------------------"))

	if len(results) == 0 {
		fmt.Println(faint("no policy rules configured"))
	}

	for _, res := range results {
		if whyRuleFilter != "" && res.Rule != whyRuleFilter {
			continue
		}

		icon := red("✖")
		switch {
		case !res.Applied:
			icon = faint("-")
		case res.Passed:
			icon = green("✔")
		}

		fmt.Printf("%s Rule: %s\n", icon, bold(res.Rule))
		fmt.Printf("    %s\n", cyan(res.Expr))
		if res.Reason != "" {
			reason := res.Reason
			if res.Applied {
				reason = yellow(reason)
			} else {
				reason = faint(reason)
			}
			fmt.Printf("      ↳ %s\n", reason)
		}
		fmt.Println()
	}

	fmt.Println("---------------------------------------------------")
	if allowed {
		fmt.Printf("Decision: %s\n", bold(green("allowed")))
	} else {
		fmt.Printf("Decision: %s by rule '%s'\n", bold(red("denied")), bold(deniedBy))
	}
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(whyCmd)

	whyCmd.Flags().StringVar(&whySubject, "subject", "", "Subject of the simulated identity")
	whyCmd.Flags().StringVar(&whySource, "source", "ldap", "Verifier type of the simulated identity")
	whyCmd.Flags().StringArrayVar(&whyAttributes, "attr", nil, "Identity attribute as key=value (repeatable)")
	whyCmd.Flags().StringVar(&whyConsumer, "consumer", "", "Consumer API id of the simulated request")
	whyCmd.Flags().StringVar(&whyFunctional, "functional", "", "Functional id of the simulated request")
	whyCmd.Flags().DurationVar(&whyRefreshWindow, "refresh-window", 0, "Refresh window of the simulated request")
	whyCmd.Flags().StringVarP(&whyRuleFilter, "rule", "r", "", "Filter output to specific rule name (optional)")

	_ = whyCmd.MarkFlagRequired("subject")
}
