package gateway

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Result is a standardized authorization outcome across providers.
// Approved=false means the provider explicitly declined the charge;
// transport-level failures are returned as errors instead.
type Result struct {
	Approved    bool
	ProviderRef string // provider's charge identifier
	Reason      string // decline reason, empty when approved
}

// Gateway is the narrow payment-authorization interface. A real provider
// implementation (card processor, bank API) swaps in without touching the
// transaction state machine.
type Gateway interface {
	// Authorize attempts to charge the given amount. It must respect ctx
	// cancellation and return quickly.
	Authorize(ctx context.Context, method string, details map[string]interface{}, amount decimal.Decimal) (*Result, error)

	// Name returns the provider identifier
	Name() string
}

// Simulated is a test-mode gateway that approves or declines charges
// based on a configured decline rate.
type Simulated struct {
	declineRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulated creates a simulated gateway. declineRate is clamped to [0, 1].
func NewSimulated(declineRate float64) *Simulated {
	if declineRate < 0 {
		declineRate = 0
	}
	if declineRate > 1 {
		declineRate = 1
	}
	return &Simulated{
		declineRate: declineRate,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Simulated) Authorize(ctx context.Context, method string, details map[string]interface{}, amount decimal.Decimal) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	roll := s.rng.Float64()
	s.mu.Unlock()

	if roll < s.declineRate {
		return &Result{
			Approved: false,
			Reason:   "card_declined",
		}, nil
	}

	return &Result{
		Approved:    true,
		ProviderRef: uuid.New().String(),
	}, nil
}

func (s *Simulated) Name() string {
	return "simulated"
}
