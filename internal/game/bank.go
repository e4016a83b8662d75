package game

import "github.com/febuchner/settlers-of-catan/internal/models"

// Bank is the finite resource pool. Counters never go negative.
type Bank struct {
	Supply models.Resources
}

// NewBank fills every type with n units.
func NewBank(n int) *Bank {
	return &Bank{Supply: models.NewResources(n)}
}

// withdraw hands out up to want, clamped per type to what is left.
// clamped is true when any type came up short.
func (b *Bank) withdraw(want models.Resources) (granted models.Resources, clamped bool) {
	granted = want.Min(b.Supply)
	clamped = granted != want
	b.Supply = b.Supply.Sub(granted)
	return granted, clamped
}

// deposit returns units to the bank.
func (b *Bank) deposit(r models.Resources) {
	b.Supply = b.Supply.Add(r)
}
