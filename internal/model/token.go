package model

// Identity is the subject recovered from a verified session token.
type Identity struct {
	UserID uint64 `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}
