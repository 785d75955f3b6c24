package pricing

import (
	"slices"

	id "domainreg/pkg/domain"
	"domainreg/pkg/money"
)

// supportedAttributes are fee element attributes the registry understands.
var supportedAttributes = []string{"description"}

// Challenge is the registrar's acknowledgement of what an operation costs.
type Challenge struct {
	Total      money.Money
	Attributes []string
}

// ValidateFeeChallenge checks an optional challenge against the computed price.
// Without a challenge, only premium operations are refused. With one, the
// currency and the total must match exactly.
func ValidateFeeChallenge(name id.DomainName, challenge *Challenge, price FeesAndCredits) error {
	if challenge == nil {
		if price.IsPremium() && !price.TotalCost().IsZero() {
			return &Failure{Kind: FailFeesRequired, Domain: name, Expected: price.TotalCost()}
		}
		return nil
	}
	for _, attr := range challenge.Attributes {
		if !slices.Contains(supportedAttributes, attr) {
			return &Failure{Kind: FailUnsupportedFeeAttribute, Domain: name, Attribute: attr}
		}
	}
	if challenge.Total.Currency != price.Currency {
		return &Failure{Kind: FailCurrencyMismatch, Domain: name, Expected: price.TotalCost(), Got: challenge.Total}
	}
	if !challenge.Total.Equal(price.TotalCost()) {
		return &Failure{Kind: FailFeeMismatch, Domain: name, Expected: price.TotalCost(), Got: challenge.Total}
	}
	return nil
}

// VerifyPremiumNotBlocked refuses a premium price to a registrar that opted
// out of premium registrations.
func VerifyPremiumNotBlocked(name id.DomainName, price FeesAndCredits, blockPremium bool) error {
	if blockPremium && price.IsPremium() {
		return &Failure{Kind: FailPremiumNameBlocked, Domain: name, Expected: price.TotalCost()}
	}
	return nil
}
