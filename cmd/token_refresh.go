package cmd

import (
	"github.com/spf13/cobra"
)

var refreshFlags requestFlags

var tokenRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Exchange a refresh token for a new access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		res, correlation, err := cli.RefreshToken(cmd.Context(), refreshFlags.request())
		if err != nil {
			return logError(err, correlation, "failed to refresh token")
		}
		logSuccess("token refreshed for %s", bold(res.Token.Claims.Subject))
		return printResult(res)
	},
}

func init() {
	tokenCmd.AddCommand(tokenRefreshCmd)

	refreshFlags.bind(tokenRefreshCmd.Flags(), true)

	_ = tokenRefreshCmd.MarkFlagRequired("credentials")
	_ = tokenRefreshCmd.MarkFlagRequired("token")
}
