package gateway_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fanstage/fanstage-api/internal/pkg/gateway"
)

func TestSimulatedAlwaysApproves(t *testing.T) {
	gw := gateway.NewSimulated(0)
	for i := 0; i < 50; i++ {
		result, err := gw.Authorize(context.Background(), "card", nil, decimal.NewFromInt(10))
		if err != nil {
			t.Fatalf("authorize failed: %v", err)
		}
		if !result.Approved {
			t.Fatal("decline rate 0 must always approve")
		}
		if result.ProviderRef == "" {
			t.Fatal("approved charge must carry a provider reference")
		}
	}
}

func TestSimulatedAlwaysDeclines(t *testing.T) {
	gw := gateway.NewSimulated(1)
	for i := 0; i < 50; i++ {
		result, err := gw.Authorize(context.Background(), "card", nil, decimal.NewFromInt(10))
		if err != nil {
			t.Fatalf("authorize failed: %v", err)
		}
		if result.Approved {
			t.Fatal("decline rate 1 must always decline")
		}
		if result.Reason == "" {
			t.Fatal("declined charge must carry a reason")
		}
	}
}

func TestSimulatedRespectsCancelledContext(t *testing.T) {
	gw := gateway.NewSimulated(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := gw.Authorize(ctx, "card", nil, decimal.NewFromInt(10)); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestSimulatedClampsRate(t *testing.T) {
	gw := gateway.NewSimulated(-5)
	result, err := gw.Authorize(context.Background(), "card", nil, decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("authorize failed: %v", err)
	}
	if !result.Approved {
		t.Fatal("negative decline rate clamps to 0 and must approve")
	}
}
