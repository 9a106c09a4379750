package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"escpos-emulator/internal/config"
	"escpos-emulator/internal/escpos"
)

func testRates() config.BillingConfig {
	return config.BillingConfig{
		CostPerTextChar: decimal.NewFromFloat(0.0001),
		CostPerRasterKB: decimal.NewFromFloat(0.01),
		CostPerCut:      decimal.NewFromFloat(0.002),
		CostPerBarcode:  decimal.NewFromFloat(0.005),
		Currency:        "USD",
	}
}

func TestCostSinceZeroForUnknownSession(t *testing.T) {
	e := NewEstimator(testRates())
	if !e.CostSince(uuid.New()).IsZero() {
		t.Fatal("expected zero cost for a session with no recorded commands")
	}
}

func TestAccountTextCommandAccrues(t *testing.T) {
	e := NewEstimator(testRates())
	id := uuid.New()

	e.Account(id, escpos.CommandRecord{Mnemonic: "TEXT", Raw: []byte("HELLO")})

	want := decimal.NewFromFloat(0.0001).Mul(decimal.NewFromInt(5))
	if got := e.CostSince(id); !got.Equal(want) {
		t.Fatalf("got cost %s, want %s", got, want)
	}
}

func TestAccountCutCommandAccrues(t *testing.T) {
	e := NewEstimator(testRates())
	id := uuid.New()

	e.Account(id, escpos.CommandRecord{Mnemonic: "GS V", Raw: []byte{0x1D, 0x56, 0x00}})

	if got := e.CostSince(id); !got.Equal(decimal.NewFromFloat(0.002)) {
		t.Fatalf("got cost %s, want 0.002", got)
	}
}

func TestAccountUnrecognizedMnemonicIsFree(t *testing.T) {
	e := NewEstimator(testRates())
	id := uuid.New()

	e.Account(id, escpos.CommandRecord{Mnemonic: "DLE EOT", Raw: []byte{0x10, 0x04, 0x01}})

	if !e.CostSince(id).IsZero() {
		t.Fatal("expected unrecognized mnemonic to carry no cost")
	}
}

func TestForgetClearsRunningTotal(t *testing.T) {
	e := NewEstimator(testRates())
	id := uuid.New()

	e.Account(id, escpos.CommandRecord{Mnemonic: "GS k", Raw: []byte{0x1D, 0x6B}})
	if e.CostSince(id).IsZero() {
		t.Fatal("expected a nonzero cost before Forget")
	}

	e.Forget(id)
	if !e.CostSince(id).IsZero() {
		t.Fatal("expected cost to reset to zero after Forget")
	}
}

func TestOnReplyNeverAccrues(t *testing.T) {
	e := NewEstimator(testRates())
	id := uuid.New()

	e.OnReply(id, []byte{0x16, 0x00})

	if !e.CostSince(id).IsZero() {
		t.Fatal("expected OnReply to never accrue cost")
	}
}
