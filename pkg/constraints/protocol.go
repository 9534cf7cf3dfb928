package constraints

// Auth endpoints. Anything under AuthPrefix is exempt from 401 recovery.
const (
	AuthPrefix             = "/auth/"
	PathLogin              = "/auth/login"
	PathLogout             = "/auth/logout"
	PathRefreshToken       = "/auth/refresh-token"
	PathRegister           = "/auth/register"
	PathVerifyEmail        = "/auth/verify-email"
	PathResendVerification = "/auth/resend-verification"
	PathChangePassword     = "/auth/change-password"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderRequestID     = "X-Request-ID"
	HeaderTraceID       = "X-Trace-ID"
	BearerPrefix        = "Bearer "
	ContentTypeJSON     = "application/json"

	// RefreshCookieName carries the refresh credential. The SDK never reads it,
	// it only rides along in the cookie jar.
	RefreshCookieName = "refresh_token"
)

// Display profile keys. The bearer token is never stored under any key.
const (
	DisplayUsername = "username"
	DisplayName     = "name"
	DisplayImageURL = "imageUrl"
	DisplayRole     = "role"
)

// DisplayKeys lists every key cleared on session teardown.
var DisplayKeys = []string{DisplayUsername, DisplayName, DisplayImageURL, DisplayRole}
