package service

import (
	"context"

	domain "domainreg/internal/domain/models"
	"domainreg/internal/registrar/models"
	id "domainreg/pkg/domain"
	dErrors "domainreg/pkg/domain-errors"
)

// Lookup resolves a registrar by client id.
type Lookup interface {
	Get(ctx context.Context, clientID id.ClientID) (*models.Registrar, error)
}

// Authorizer answers whether a registrar may act on a domain or TLD.
type Authorizer struct {
	lookup Lookup
}

func NewAuthorizer(lookup Lookup) *Authorizer {
	return &Authorizer{lookup: lookup}
}

// VerifyActive loads the registrar and fails unless it may issue commands.
func (a *Authorizer) VerifyActive(ctx context.Context, clientID id.ClientID) (*models.Registrar, error) {
	r, err := a.lookup.Get(ctx, clientID)
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil, &models.Failure{Kind: models.FailUnknownRegistrar, ClientID: clientID}
	}
	if err != nil {
		return nil, err
	}
	if !r.IsActive() {
		return nil, &models.Failure{Kind: models.FailRegistrarInactive, ClientID: clientID}
	}
	return r, nil
}

// VerifySponsor fails unless clientID is an active registrar sponsoring d.
func (a *Authorizer) VerifySponsor(ctx context.Context, clientID id.ClientID, d domain.Domain) error {
	if _, err := a.VerifyActive(ctx, clientID); err != nil {
		return err
	}
	if d.CurrentSponsorClientID != clientID {
		return &models.Failure{Kind: models.FailResourceNotOwned, ClientID: clientID, Domain: d.Name}
	}
	return nil
}

// VerifyTLDAccess fails unless clientID is an active registrar accredited for tld.
func (a *Authorizer) VerifyTLDAccess(ctx context.Context, clientID id.ClientID, tld string) error {
	r, err := a.VerifyActive(ctx, clientID)
	if err != nil {
		return err
	}
	if !r.AllowsTLD(tld) {
		return &models.Failure{Kind: models.FailTLDNotAllowed, ClientID: clientID, TLD: tld}
	}
	return nil
}

// BlocksPremiumNames reports whether the registrar refuses premium prices.
func (a *Authorizer) BlocksPremiumNames(ctx context.Context, clientID id.ClientID) (bool, error) {
	r, err := a.VerifyActive(ctx, clientID)
	if err != nil {
		return false, err
	}
	return r.BlockPremiumNames, nil
}
