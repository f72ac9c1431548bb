package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/tokenizer/internal/core"
)

var (
	encryptUsername string
	encryptPassword string
)

var credentialsEncryptCmd = &cobra.Command{
	Use:   "encrypt",
	Short: "Encrypt a username and password into a credential bundle",
	Long: `Encrypts the given username and password with the configured cipher.
If --password is omitted, the password is read from the first line of stdin.`,
	Example: `  echo "s3cret" | tokenizer credentials encrypt -c tokenizer.yaml --username alice`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := f.LoadCipher()
		if err != nil {
			return err
		}

		password := encryptPassword
		if password == "" {
			log.Debug().Msg("Reading password from stdin")
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read password from stdin: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}

		enc, err := c.Encrypt(core.Credentials{Username: encryptUsername, Password: password})
		if err != nil {
			return logError(err, "", "failed to encrypt credentials")
		}
		fmt.Println(enc)
		return nil
	},
}

var credentialsDecryptCmd = &cobra.Command{
	Use:   "decrypt BUNDLE",
	Short: "Decrypt a credential bundle and show the username",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := f.LoadCipher()
		if err != nil {
			return err
		}
		creds, err := c.Decrypt(args[0])
		if err != nil {
			return logError(err, "", "failed to decrypt credentials")
		}
		logSuccess("bundle is valid for user %s", bold(creds.Username))
		return nil
	},
}

func init() {
	credentialsCmd.AddCommand(credentialsEncryptCmd)
	credentialsCmd.AddCommand(credentialsDecryptCmd)

	credentialsEncryptCmd.Flags().StringVarP(&encryptUsername, "username", "u", "", "Username to encrypt")
	credentialsEncryptCmd.Flags().StringVarP(&encryptPassword, "password", "p", "",
		"Password to encrypt (read from stdin if omitted)")

	_ = credentialsEncryptCmd.MarkFlagRequired("username")
}
