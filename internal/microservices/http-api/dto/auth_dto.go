package dto

// Data Transfer Objects for authentication requests and responses

// RegisterRequest: payload for member self-registration
type RegisterRequest struct {
	Email       string  `json:"email" binding:"required,email,max=254"`
	Password    string  `json:"password" binding:"required,min=8,max=72"`
	FirstName   string  `json:"first_name" binding:"required,max=150"`
	LastName    string  `json:"last_name" binding:"required,max=150"`
	Address     *string `json:"address,omitempty" binding:"omitempty,max=500"`
	PhoneNumber *string `json:"phone_number,omitempty" binding:"omitempty,max=20"`
}

// LoginRequest: payload for member login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse: response payload after successful authentication
type AuthResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	TokenType    string         `json:"token_type"`
	ExpiresIn    int64          `json:"expires_in"` // seconds
	Member       MemberResponse `json:"member"`
}

// RefreshTokenRequest: payload for refreshing or revoking a refresh token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshResponse: a rotated token pair
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// MessageResponse: plain acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}
