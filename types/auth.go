package types

// SignInRequest is the sign-in payload.
type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignInResponse is returned on a successful sign-in. Roles holds
// authority strings such as "ROLE_ADMIN".
type SignInResponse struct {
	ID          int      `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	AccessToken string   `json:"accessToken"`
}
