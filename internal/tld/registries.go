package tld

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	dErrors "domainreg/pkg/domain-errors"
)

// Registries is the in-memory TLD policy table, loaded once at startup.
type Registries struct {
	mu   sync.RWMutex
	tlds map[string]Registry
}

type file struct {
	TLDs []Registry `yaml:"tlds"`
}

// New builds a table from registries.
func New(registries ...Registry) (*Registries, error) {
	r := &Registries{tlds: make(map[string]Registry, len(registries))}
	for _, reg := range registries {
		if err := r.Put(reg); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Parse reads a YAML policy document. Missing durations fall back to the defaults.
func Parse(data []byte) (*Registries, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "parse tld config")
	}
	defaults := DefaultDurations()
	for i := range f.TLDs {
		fillDurations(&f.TLDs[i].Durations, defaults)
		if f.TLDs[i].Phase == "" {
			f.TLDs[i].Phase = PhaseGeneralAvailability
		}
	}
	return New(f.TLDs...)
}

// LoadFile reads the YAML policy file at path.
func LoadFile(path string) (*Registries, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tld config: %w", err)
	}
	return Parse(data)
}

// Put validates and installs a registry, replacing any previous policy.
func (r *Registries) Put(reg Registry) error {
	if err := reg.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tlds[reg.TLD] = reg
	return nil
}

// Get returns the policy for tld.
func (r *Registries) Get(_ context.Context, tld string) (Registry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.tlds[tld]
	if !ok {
		return Registry{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("tld %s does not exist", tld))
	}
	return reg, nil
}

// List returns every TLD name, sorted.
func (r *Registries) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.tlds))
	for name := range r.tlds {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func fillDurations(d *Durations, defaults Durations) {
	fill := func(dst *time.Duration, def time.Duration) {
		if *dst == 0 {
			*dst = def
		}
	}
	fill(&d.AddGrace, defaults.AddGrace)
	fill(&d.AutoRenewGrace, defaults.AutoRenewGrace)
	fill(&d.RenewGrace, defaults.RenewGrace)
	fill(&d.TransferGrace, defaults.TransferGrace)
	fill(&d.RedemptionGrace, defaults.RedemptionGrace)
	fill(&d.SunrushAddGrace, defaults.SunrushAddGrace)
	fill(&d.PendingDelete, defaults.PendingDelete)
	fill(&d.AutomaticTransfer, defaults.AutomaticTransfer)
}
