package ledger

import (
	"fmt"
	"math"
	"strings"
)

// Share is one labeled percentage slice of a distribution policy.
type Share struct {
	Label string
	Rate  float64 // percentage, 0..100
}

// Policy is a named, ordered list of shares that must sum to exactly 100%.
// The first share is the consultant's; a zero consultant rate marks a
// team-only policy.
type Policy struct {
	Name           string
	ConsultantRate float64
	TeamShares     []Share
	WebsiteRate    float64
}

// ConsultationFeePolicy splits a consultation fee between the assigned
// consultant, the operating team, and the platform.
var ConsultationFeePolicy = Policy{
	Name:           "consultation_fee",
	ConsultantRate: 75,
	TeamShares: []Share{
		{Label: "Team lead", Rate: 10},
		{Label: "Operations", Rate: 6.25},
		{Label: "Marketing", Rate: 3.75},
		{Label: "Support", Rate: 3.75},
	},
	WebsiteRate: 1.25,
}

// PartnershipPolicy distributes amounts with no individual consultant, such
// as grants or bulk payments.
var PartnershipPolicy = Policy{
	Name:           "partnership",
	ConsultantRate: 0,
	TeamShares: []Share{
		{Label: "Partner A", Rate: 40},
		{Label: "Partner B", Rate: 25},
		{Label: "Partner C", Rate: 15},
		{Label: "Partner D", Rate: 15},
	},
	WebsiteRate: 5,
}

// Validate checks that the policy's rates sum to exactly 100%. Called at
// startup so a drifted constant fails fast instead of silently leaking money.
func (p Policy) Validate() error {
	total := p.ConsultantRate + p.WebsiteRate
	for _, s := range p.TeamShares {
		if s.Rate < 0 {
			return fmt.Errorf("policy %s: negative rate for %s", p.Name, s.Label)
		}
		total += s.Rate
	}
	if math.Abs(total-100) > 1e-9 {
		return fmt.Errorf("policy %s: rates sum to %v, want 100", p.Name, total)
	}
	return nil
}

// Distribution is the computed split of one amount under one policy.
type Distribution struct {
	Amount         float64
	CommissionRate float64
	NetEarning     float64
	TeamFee        float64
	WebsiteFee     float64
	Notes          string
}

// Distribute applies the policy to amount. Pure computation: stored fields
// keep full precision, only the Notes breakdown rounds to two decimals.
func (p Policy) Distribute(amount float64) (Distribution, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Distribution{}, fmt.Errorf("distribution amount must be a positive number, got %v", amount)
	}

	d := Distribution{
		Amount:         amount,
		CommissionRate: p.ConsultantRate,
		NetEarning:     amount * p.ConsultantRate / 100,
		WebsiteFee:     amount * p.WebsiteRate / 100,
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s distribution of %.2f:", p.Name, amount)
	if p.ConsultantRate > 0 {
		fmt.Fprintf(&b, " consultant %.2f%% = %.2f;", p.ConsultantRate, d.NetEarning)
	}
	for _, s := range p.TeamShares {
		v := amount * s.Rate / 100
		d.TeamFee += v
		fmt.Fprintf(&b, " %s %.2f%% = %.2f;", s.Label, s.Rate, v)
	}
	fmt.Fprintf(&b, " platform %.2f%% = %.2f", p.WebsiteRate, d.WebsiteFee)
	d.Notes = b.String()

	return d, nil
}
