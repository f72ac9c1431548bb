package audit

import (
	"crypto/sha256"
	"encoding/base64"
	"sort"
)

const (
	DefaultFingerprintType   = "default"
	TokenizerFingerprintType = "tokenizer_jwt"
)

// Fingerprinter derives a non-reversible identifier from a token value.
type Fingerprinter func(token string) string

var fingerprintRegistry = map[string]Fingerprinter{
	DefaultFingerprintType: func(_ string) string {
		return "(n/a)"
	},
	TokenizerFingerprintType: sha256Fingerprint,
}

func CalculateFingerprint(fingerprintType, token string) string {
	if token == "" {
		return ""
	}
	fn, ok := fingerprintRegistry[fingerprintType]
	if !ok {
		fn = fingerprintRegistry[DefaultFingerprintType]
	}
	return fn(token)
}

func sha256Fingerprint(token string) string {
	hash := sha256.Sum256([]byte(token))
	return base64.StdEncoding.EncodeToString(hash[:])
}

// RegisteredFingerprinterTypes returns the known fingerprint types, sorted.
func RegisteredFingerprinterTypes() []string {
	types := make([]string, 0, len(fingerprintRegistry))
	for t := range fingerprintRegistry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
