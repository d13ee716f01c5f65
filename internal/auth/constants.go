package auth

const (
	ContextKeyPrincipal = "principal"

	headerAuthorization = "Authorization"
	bearerScheme        = "bearer"
	authHeaderParts     = 2
)

const (
	msgMissingAuthorization    = "missing authorization token"
	msgInvalidOrExpiredToken   = "invalid or expired token"
	msgSessionRoleChanged      = "role changed since sign-in, please sign in again"
	msgUserNotAuthenticated    = "user not authenticated"
	msgInvalidPrincipalCtx     = "invalid principal in context"
	msgUnexpectedSigningMethod = "unexpected signing method: %v"
	msgTokenParseFailed        = "failed to parse token: %w"
	msgInvalidTokenClaims      = "invalid token claims"
)
