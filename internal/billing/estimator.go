// internal/billing/estimator.go
package billing

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"escpos-emulator/internal/config"
	"escpos-emulator/internal/escpos"
)

// kilobyte is the unit CostPerRasterKB is priced against.
const kilobyte = 1024

// Estimator tallies printable-consumable usage per session and converts
// it to a running cost estimate, read-only and decoupled from decoding
// itself (spec.md §6's reply generation never consults it).
type Estimator struct {
	mu     sync.Mutex
	rates  config.BillingConfig
	totals map[uuid.UUID]decimal.Decimal
}

// NewEstimator creates an estimator against the given billing rates.
func NewEstimator(rates config.BillingConfig) *Estimator {
	return &Estimator{
		rates:  rates,
		totals: make(map[uuid.UUID]decimal.Decimal),
	}
}

// OnCommand implements session.Observer so an Estimator can be wired
// directly into a session.Registry's observer chain.
func (e *Estimator) OnCommand(sessionID uuid.UUID, record escpos.CommandRecord) {
	e.Account(sessionID, record)
}

// OnReply implements session.Observer; replies never carry a cost.
func (e *Estimator) OnReply(sessionID uuid.UUID, reply []byte) {}

// Account folds one decoded command record into a session's running cost.
// Unrecognized mnemonics are free — only consumable-producing commands
// (text runs, raster images, cuts, barcodes) carry a cost.
func (e *Estimator) Account(sessionID uuid.UUID, record escpos.CommandRecord) {
	cost := e.costOf(record)
	if cost.IsZero() {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.totals[sessionID] = e.totals[sessionID].Add(cost)
}

func (e *Estimator) costOf(record escpos.CommandRecord) decimal.Decimal {
	switch record.Mnemonic {
	case "TEXT":
		return e.rates.CostPerTextChar.Mul(decimal.NewFromInt(int64(len(record.Raw))))
	case "GS v 0", "ESC *":
		kb := decimal.NewFromInt(int64(len(record.Raw))).Div(decimal.NewFromInt(kilobyte))
		return e.rates.CostPerRasterKB.Mul(kb)
	case "GS V":
		return e.rates.CostPerCut
	case "GS k":
		return e.rates.CostPerBarcode
	default:
		return decimal.Zero
	}
}

// CostSince returns a session's running cost estimate, zero if the
// session has produced no billable commands yet.
func (e *Estimator) CostSince(sessionID uuid.UUID) decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	total, ok := e.totals[sessionID]
	if !ok {
		return decimal.Zero
	}
	return total
}

// Currency returns the currency code the estimator's rates are quoted in.
func (e *Estimator) Currency() string {
	return e.rates.Currency
}

// Forget drops a session's running total, called when a session closes.
func (e *Estimator) Forget(sessionID uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.totals, sessionID)
}
