package buildinfo

var (
	Version    = "v1.0.0"
	CommitHash = "unknown"
)

type Info struct {
	About      string `json:"about,omitempty"`
	Service    string `json:"service,omitempty"`
	Version    string `json:"version,omitempty"`
	CommitHash string `json:"commit_hash,omitempty"`
	// Verifier is the identity verifier the server runs with; only set by servers.
	Verifier string `json:"verifier,omitempty"`
}

func GetBuildInfo() Info {
	return Info{
		About:      "https://github.com/darmiel/tokenizer",
		Service:    "Tokenizer",
		Version:    Version,
		CommitHash: CommitHash,
	}
}
