package api

const (
	HealthCheckRoute = "/healthz"
	AboutRoute       = "/about"

	SecurityParent           = "/tokenizer/v1/security/"
	CreateTokenRoute         = SecurityParent + "token"
	ValidateTokenRoute       = SecurityParent + "valid"
	CreateTokenPublicRoute   = SecurityParent + "public/token"
	ValidateTokenPublicRoute = SecurityParent + "public/valid"
	RefreshTokenRoute        = SecurityParent + "refresh"

	AdminParent     = "/tokenizer/v1/admin/"
	ListAuditsRoute = AdminParent + "audits"
)

// Request headers of the token routes.
const (
	HeaderCredentials   = "credentials"
	HeaderConsumerID    = "consumer-api-id"
	HeaderFunctionalID  = "functional-id"
	HeaderTransactionID = "transaction-id"
	HeaderRefreshWindow = "refresh-token"
	HeaderAuthToken     = "auth-token"
)
