package services

import (
	"math/rand/v2"
	"sync"
	"time"
)

// EVIncentiveCatalog is the fixed list incentives are drawn from.
var EVIncentiveCatalog = []string{
	"2 Years Extra Insurance Coverage",
	"Free Home Charging Station Installation",
	"1 Year Free Public Charging Access",
	"Extended Battery Warranty (5 Years)",
	"Zero Registration Fees",
	"Priority Service Appointments",
	"Free Annual Maintenance (3 Years)",
	"Complimentary Winter Tire Package",
	"Government Tax Credit Assistance",
	"Free Software Updates for Life",
	"24/7 Roadside Assistance (3 Years)",
	"Exclusive EV Owner Events Access",
}

const incentivesPerCar = 3

// IncentivePicker draws a fresh random set of incentives on every call.
// The selection is never stored: each view of an EV listing shows a new set.
type IncentivePicker struct {
	mu  sync.Mutex
	rng *rand.Rand
	n   int
}

func NewIncentivePicker(src rand.Source) *IncentivePicker {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>7|1)
	}
	return &IncentivePicker{rng: rand.New(src), n: incentivesPerCar}
}

// Pick returns n distinct incentives, uniformly at random.
func (p *IncentivePicker) Pick() []string {
	p.mu.Lock()
	perm := p.rng.Perm(len(EVIncentiveCatalog))
	p.mu.Unlock()

	out := make([]string, p.n)
	for i := range out {
		out[i] = EVIncentiveCatalog[perm[i]]
	}
	return out
}
