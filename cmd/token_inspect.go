package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var tokenInspectCmd = &cobra.Command{
	Use:   "inspect TOKEN",
	Short: "Show the claims of a token without verifying its signature",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw := strings.TrimSpace(strings.TrimPrefix(args[0], "Bearer "))

		var claims jwt.MapClaims
		if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
			return logError(err, "", "failed to parse token")
		}

		keys := make([]string, 0, len(claims))
		for k := range claims {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Claim", "Value"})
		for _, k := range keys {
			t.AppendRow(table.Row{k, formatClaim(k, claims[k])})
		}
		t.SetStyle(table.StyleLight)
		t.Render()

		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			remaining := time.Until(exp.Time).Round(time.Second)
			if remaining > 0 {
				log.Info().Msgf("token expires in %s", remaining)
			} else {
				log.Warn().Msgf("token expired %s ago", -remaining)
			}
		}
		return nil
	},
}

// formatClaim renders NumericDate claims as local timestamps.
func formatClaim(key string, value any) string {
	switch key {
	case "exp", "iat", "nbf", "rexp":
		if v, ok := value.(float64); ok {
			return time.Unix(int64(v), 0).Local().Format(time.RFC1123)
		}
	}
	return fmt.Sprint(value)
}

func init() {
	tokenCmd.AddCommand(tokenInspectCmd)
}
