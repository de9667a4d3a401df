package models

import (
	"time"
)

// Wallet is the balance subset of the user aggregate. The balance is
// mutated by ticket purchases (debit) and referral withdrawals (credit)
// and must never go below zero.
type Wallet struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"` // kobo
}

type WalletDirection string

const (
	WalletDebit  WalletDirection = "debit"
	WalletCredit WalletDirection = "credit"
)

// WalletTransaction is the append-only history record written alongside
// every balance mutation, in the same transaction.
type WalletTransaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Amount      int64           `json:"amount"` // kobo, always positive
	Direction   WalletDirection `json:"direction"`
	Reference   string          `json:"reference"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}
