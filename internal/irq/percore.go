package irq

// PerCore holds one independent Registry per core, for the local timer
// interrupt, spec §3 "per-core for the local timer", grounded on the
// original IRQ being declared once but re-initialized per-core in the
// teacher's boot sequence.
type PerCore struct {
	cores []*Registry
}

// NewPerCore allocates n independent, uninitialized registries.
func NewPerCore(n int) *PerCore {
	p := &PerCore{cores: make([]*Registry, n)}
	for i := range p.cores {
		p.cores[i] = New()
	}
	return p
}

// For returns the registry belonging to the given core index.
func (p *PerCore) For(core int) *Registry {
	return p.cores[core]
}
