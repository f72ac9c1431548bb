package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/darmiel/tokenizer/internal/core"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Create, validate and refresh tokens on a remote server",
}

// requestFlags are shared by the remote token commands.
type requestFlags struct {
	credentials   string
	consumerID    string
	functionalID  string
	transactionID string
	refreshWindow time.Duration
	token         string
	public        bool
}

func (r *requestFlags) bind(flags *pflag.FlagSet, withToken bool) {
	flags.StringVar(&r.credentials, "credentials", "", "Encrypted credential bundle")
	flags.StringVar(&r.consumerID, "consumer", "", "Consumer API id")
	flags.StringVar(&r.functionalID, "functional", "", "Functional id")
	flags.StringVar(&r.transactionID, "transaction", "", "Transaction id (generated if empty)")
	if withToken {
		flags.StringVarP(&r.token, "token", "t", "", "Token to send as auth-token")
	}
}

func (r *requestFlags) request() core.CredentialRequest {
	return core.CredentialRequest{
		EncryptedCredentials: r.credentials,
		JWTToken:             r.token,
		ConsumerID:           r.consumerID,
		FunctionalID:         r.functionalID,
		TransactionID:        r.transactionID,
		RefreshWindow:        int(r.refreshWindow / time.Second),
	}
}

func printResult(res *core.WorkflowResult) error {
	var buffer bytes.Buffer
	enc := json.NewEncoder(&buffer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("failed to encode result to JSON: %w", err)
	}
	fmt.Print(buffer.String())
	return nil
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}
