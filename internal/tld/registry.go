// Package tld holds per-TLD registry policy: grace and transfer window
// lengths, the launch phase, the billing currency and the price schedule.
package tld

import (
	"fmt"
	"time"

	"domainreg/internal/grace"
	dErrors "domainreg/pkg/domain-errors"
	"domainreg/pkg/money"
	"domainreg/pkg/timeutil"
)

// Phase is the TLD launch phase.
type Phase string

const (
	PhaseGeneralAvailability Phase = "GENERAL_AVAILABILITY"
	PhaseSunrush             Phase = "SUNRUSH"
)

// Durations are the policy windows for a TLD.
type Durations struct {
	AddGrace          time.Duration `yaml:"add_grace"`
	AutoRenewGrace    time.Duration `yaml:"auto_renew_grace"`
	RenewGrace        time.Duration `yaml:"renew_grace"`
	TransferGrace     time.Duration `yaml:"transfer_grace"`
	RedemptionGrace   time.Duration `yaml:"redemption_grace"`
	SunrushAddGrace   time.Duration `yaml:"sunrush_add_grace"`
	PendingDelete     time.Duration `yaml:"pending_delete"`
	AutomaticTransfer time.Duration `yaml:"automatic_transfer"`
}

// Prices are decimal strings in the TLD currency.
type Prices struct {
	Create             string            `yaml:"create"`
	Renew              string            `yaml:"renew"`
	Restore            string            `yaml:"restore"`
	ServerStatusUpdate string            `yaml:"server_status_update"`
	Premium            map[string]string `yaml:"premium"`
}

// Registry is the policy for one TLD.
type Registry struct {
	TLD       string         `yaml:"tld"`
	Currency  money.Currency `yaml:"currency"`
	Phase     Phase          `yaml:"phase"`
	Durations Durations      `yaml:"durations"`
	Prices    Prices         `yaml:"prices"`
}

// DefaultDurations are the ICANN-standard windows.
func DefaultDurations() Durations {
	return Durations{
		AddGrace:          timeutil.Days(5),
		AutoRenewGrace:    timeutil.Days(45),
		RenewGrace:        timeutil.Days(5),
		TransferGrace:     timeutil.Days(5),
		RedemptionGrace:   timeutil.Days(30),
		SunrushAddGrace:   timeutil.Days(30),
		PendingDelete:     timeutil.Days(5),
		AutomaticTransfer: timeutil.Days(5),
	}
}

// GraceLength implements grace.Policy.
func (r Registry) GraceLength(t grace.Type) time.Duration {
	d := r.Durations
	switch t {
	case grace.Add:
		return d.AddGrace
	case grace.AutoRenew:
		return d.AutoRenewGrace
	case grace.Renew:
		return d.RenewGrace
	case grace.Transfer:
		return d.TransferGrace
	case grace.Redemption:
		return d.RedemptionGrace
	case grace.SunrushAdd:
		return d.SunrushAddGrace
	default:
		return 0
	}
}

// MaxCancelableSearch is how far back delete looks for add and renew
// transaction records that can still be cancelled.
func (r Registry) MaxCancelableSearch() time.Duration {
	return max(r.Durations.AddGrace, r.Durations.AutoRenewGrace, r.Durations.RenewGrace)
}

func (r Registry) validate() error {
	if r.TLD == "" {
		return dErrors.New(dErrors.CodeValidation, "tld is required")
	}
	if _, err := money.ParseCurrency(string(r.Currency)); err != nil {
		return fmt.Errorf("tld %s: %w", r.TLD, err)
	}
	switch r.Phase {
	case PhaseGeneralAvailability, PhaseSunrush:
	default:
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("tld %s: unknown phase %q", r.TLD, r.Phase))
	}
	return nil
}
