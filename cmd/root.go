package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/darmiel/tokenizer/internal/buildinfo"
	"github.com/darmiel/tokenizer/internal/logging"
)

// global flags
var (
	userConfig string
	cfgFile    string
)

const (
	TokenizerAddrKey = "addr"

	// secrets that may be provided via env instead of the config file
	SigningSecretKey    = "signing.secret"
	CipherKeyKey        = "cipher.key"
	CipherPassphraseKey = "cipher.passphrase"
)

var f = NewFactory()

var rootCmd = &cobra.Command{
	Use:   "tokenizer",
	Short: fmt.Sprintf("Tokenizer (version: %s, commit: %s)", buildinfo.Version, buildinfo.CommitHash),
	Long: `Tokenizer issues, validates and refreshes signed session tokens.
	Callers present encrypted credentials which are checked against an LDAP directory
	or a delegated REST authorization service before a token is granted.`,
	Version: buildinfo.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, configErr := initConfig()
		logging.Init(nil)
		if configErr != nil { // handle error after logging is initialized
			return configErr
		}
		if configPath != "" {
			log.Debug().Msgf("using user config file: %s", configPath)
		}
		f.RemoteAddr = viper.GetString(TokenizerAddrKey)
		f.ConfigPath = cfgFile
		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		var quiet BeQuietError
		if !errors.As(err, &quiet) {
			log.Error().Err(err).Msg("execution failed")
		}
		os.Exit(1)
	}
}

func init() {
	// setup pre-flag logger
	logging.InitDefault()

	rootCmd.PersistentFlags().StringVar(&userConfig, "user-config", "",
		"User configuration file for default values (default is $HOME/.tokenizer.yaml)")

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "tokenizer.yaml",
		"Service configuration file (cipher, signing, verifier, policy, audit)")

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	_ = viper.BindPFlag(logging.LevelKey, rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console, json)")
	_ = viper.BindPFlag(logging.FormatKey, rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.PersistentFlags().Bool("no-color", false, "Disable color output")
	_ = viper.BindPFlag(logging.NoColorKey, rootCmd.PersistentFlags().Lookup("no-color"))

	rootCmd.PersistentFlags().String("server", "", "Address of the remote Tokenizer server")
	_ = viper.BindPFlag(TokenizerAddrKey, rootCmd.PersistentFlags().Lookup("server"))

	viper.SetEnvPrefix("TOKENIZER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))

	viper.AutomaticEnv()

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}

func initConfig() (string, error) {
	// reads in config file and ENV variables if set.
	if userConfig != "" {
		viper.SetConfigFile(userConfig)
	} else {
		// search order: current dir, $HOME, XDG config
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}

		config, err := os.UserConfigDir()
		if err == nil {
			viper.AddConfigPath(config + "/tokenizer")
		}

		viper.SetConfigType("yaml")
		viper.SetConfigName(".tokenizer")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundError) {
			return "", err
		}
	} else {
		return viper.ConfigFileUsed(), nil
	}

	return "", nil
}
