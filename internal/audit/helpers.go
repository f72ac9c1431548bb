package audit

import (
	"fmt"

	"github.com/darmiel/tokenizer/internal/buildinfo"
)

// CreateUserAgent builds the User-Agent sent to outbound services so their logs can be correlated with ours.
func CreateUserAgent(correlationID, transactionID string) string {
	return fmt.Sprintf("Tokenizer/%s (correlation_id=%s; transaction_id=%s)",
		buildinfo.Version, correlationID, transactionID)
}
