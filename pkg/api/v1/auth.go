package v1

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username        string `json:"username" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Phone           string `json:"phone"`
	Name            string `json:"name"`
}

type ChangePasswordRequest struct {
	OldPassword     string `json:"oldPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// TokenResponse is returned by both login and refresh. Older backends send
// the access token as "token", newer ones as "accessToken".
type TokenResponse struct {
	AccessToken string `json:"accessToken,omitempty"`
	Token       string `json:"token,omitempty"`
	ExpiresIn   int64  `json:"expiresIn,omitempty"` // seconds
	Username    string `json:"username,omitempty"`
	Name        string `json:"name,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Role        string `json:"role,omitempty"`
}

// BearerToken returns whichever token field the backend populated.
func (t TokenResponse) BearerToken() string {
	if t.AccessToken != "" {
		return t.AccessToken
	}
	return t.Token
}

// ErrorBody is the error envelope the backend uses for non-2xx responses.
type ErrorBody struct {
	Message string            `json:"message,omitempty"`
	Error   string            `json:"error,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}
