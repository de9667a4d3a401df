package models

// ReferralLedger is keyed by referral code. RefGain only grows through
// the signup-referral path and only shrinks through a withdrawal that
// grows TotalWithdrawn by the same amount.
type ReferralLedger struct {
	Code           string   `json:"code"`
	OwnerID        string   `json:"owner_id"`
	ReferredUsers  []string `json:"referred_users"` // append-only
	RefGain        int64    `json:"ref_gain"`       // kobo
	TotalWithdrawn int64    `json:"total_withdrawn"`
}

// HasReferred reports whether the user was already credited to this ledger.
func (r *ReferralLedger) HasReferred(userID string) bool {
	for _, id := range r.ReferredUsers {
		if id == userID {
			return true
		}
	}
	return false
}
