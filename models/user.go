package models

// User is the profile subset settlement denormalizes onto tickets.
type User struct {
	ID         string `json:"id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	WalletPin  string `json:"-"` // bcrypt hash, empty when unset
	ReferredBy string `json:"referred_by,omitempty"`
}
