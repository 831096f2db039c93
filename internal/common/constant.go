package common

// Cookie and header names carrying the session tokens.
const (
	AccessTokenCookieName  = "accessToken"
	RefreshTokenCookieName = "refreshToken"
	AuthorizationHeader    = "Authorization"
	BearerPrefix           = "Bearer "
)

// DBName is appended to DATABASE_URL when the DSN is assembled from the
// environment.
const DBName = "vidtube"
