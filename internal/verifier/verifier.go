package verifier

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/darmiel/tokenizer/internal/config"
	"github.com/darmiel/tokenizer/internal/core"
)

// New builds the identity verifier selected by cfg.Type.
// The choice is made once at startup; callers only ever see core.IdentityVerifier.
func New(cfg config.VerifierConfig) (core.IdentityVerifier, error) {
	switch cfg.Type {
	case config.VerifierLDAP:
		var conf LDAPConfig
		if err := decode(cfg.Config, &conf); err != nil {
			return nil, fmt.Errorf("decoding ldap verifier config: %w", err)
		}
		conf.Timeout = cfg.Timeout
		v, err := NewLDAP(conf)
		if err != nil {
			return nil, fmt.Errorf("building ldap verifier: %w", err)
		}
		return v, nil
	case config.VerifierREST:
		var conf RESTConfig
		if err := decode(cfg.Config, &conf); err != nil {
			return nil, fmt.Errorf("decoding rest verifier config: %w", err)
		}
		conf.Timeout = cfg.Timeout
		v, err := NewREST(conf)
		if err != nil {
			return nil, fmt.Errorf("building rest verifier: %w", err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown verifier type %q", cfg.Type)
	}
}

func decode(input map[string]any, result any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           result,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}
	return decoder.Decode(input)
}
