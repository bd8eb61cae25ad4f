package dto

// AuthRequest describes registration/login payload. Role is only
// honored on registration and defaults to customer.
type AuthRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}
