package paystack

// VerifyPayload is a loose decode of the provider's verify response.
// Paystack has shipped more than one success shape over the years, so
// the fields cover every variant we have seen.
type VerifyPayload struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Success bool   `json:"success"`
	// Some gateways (and older Paystack endpoints) return a flat string
	// status instead of the boolean envelope.
	RawStatus string `json:"transaction_status"`
	Data      struct {
		Status          string `json:"status"` // success, failed, abandoned, pending, ongoing
		Reference       string `json:"reference"`
		Amount          int64  `json:"amount"` // kobo
		GatewayResponse string `json:"gateway_response"`
		Channel         string `json:"channel"`
	} `json:"data"`

	HTTPStatus int `json:"-"`
}

// Outcome mirrors the adapter's tri-state without importing it.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeSettled
	OutcomeFailed
)

// verifyRule pairs a predicate with its outcome. Rules are evaluated in
// order and the first match wins; anything unmatched is Pending. Adding
// a provider quirk means adding a row, not a branch.
type verifyRule struct {
	name  string
	match func(p *VerifyPayload) bool
	state Outcome
}

var verifyRules = []verifyRule{
	{
		name:  "envelope success",
		match: func(p *VerifyPayload) bool { return p.Status && p.Data.Status == "success" },
		state: OutcomeSettled,
	},
	{
		name:  "flat status success",
		match: func(p *VerifyPayload) bool { return p.RawStatus == "success" },
		state: OutcomeSettled,
	},
	{
		name:  "success flag",
		match: func(p *VerifyPayload) bool { return p.Success },
		state: OutcomeSettled,
	},
	{
		name:  "explicit failure",
		match: func(p *VerifyPayload) bool { return p.Data.Status == "failed" || p.Data.Status == "reversed" },
		state: OutcomeFailed,
	},
	// abandoned means the payer quit the checkout; the charge can still
	// complete, so keep polling.
	{
		name:  "abandoned",
		match: func(p *VerifyPayload) bool { return p.Data.Status == "abandoned" },
		state: OutcomePending,
	},
}

// Normalize reduces a raw payload to the tri-state outcome. The
// OR-of-predicates for success is deliberate: it tolerates schema drift
// from the provider.
func Normalize(p *VerifyPayload) Outcome {
	for _, rule := range verifyRules {
		if rule.match(p) {
			return rule.state
		}
	}
	return OutcomePending
}
