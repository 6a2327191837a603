package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CredentialsRequest struct {
	Username string `json:"username" validate:"required,notblank,max=150"`
	Password string `json:"password" validate:"required,min=4,max=72"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type AuthResponse struct {
	User UserResponse `json:"user"`
}

// AuthResult is returned by the auth service; the handler moves Token into a cookie.
type AuthResult struct {
	Token string
	User  UserResponse
}
