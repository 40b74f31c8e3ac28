package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tablebill/api/internal/database"
	"github.com/tablebill/api/internal/enum"
)

// splitTolerance is how far split payments may drift from the bill total.
var splitTolerance = decimal.NewFromFloat(0.1)

// CashStore defines the DB methods for the cash ledger.
type CashStore interface {
	GetOpenCashRegister(ctx context.Context, arg database.GetOpenCashRegisterParams) (database.CashRegister, error)
	CreateCashTransaction(ctx context.Context, arg database.CreateCashTransactionParams) (database.CashTransaction, error)
}

// SplitPayment is one leg of a split bill.
type SplitPayment struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

// Payment describes how an order or session is being paid.
type Payment struct {
	IsPaid         bool
	Method         string
	Splits         []SplitPayment
	CashRegisterID uuid.NullUUID
}

// validatePaymentFields checks everything that does not depend on the
// bill total.
func validatePaymentFields(p Payment) error {
	if !p.IsPaid {
		return nil
	}
	if p.Method == "" {
		return ErrPaymentRequired
	}
	if !enum.IsPaymentMethod(p.Method) {
		return ErrInvalidPayment
	}
	if !p.CashRegisterID.Valid {
		return ErrRegisterRequired
	}
	if p.Method != enum.PaymentMethodSplit {
		return nil
	}
	if len(p.Splits) == 0 {
		return ErrSplitEmpty
	}
	for i, sp := range p.Splits {
		if !enum.IsPaymentMethod(sp.Method) || sp.Method == enum.PaymentMethodSplit {
			return fmt.Errorf("splitPayments[%d]: %w", i, ErrInvalidPayment)
		}
		if !sp.Amount.IsPositive() {
			return fmt.Errorf("splitPayments[%d]: %w", i, ErrSplitAmount)
		}
	}
	return nil
}

// validatePayment also checks split legs against the bill total.
func validatePayment(p Payment, total decimal.Decimal) error {
	if err := validatePaymentFields(p); err != nil {
		return err
	}
	if !p.IsPaid || p.Method != enum.PaymentMethodSplit {
		return nil
	}
	sum := decimal.Zero
	for _, sp := range p.Splits {
		sum = sum.Add(sp.Amount)
	}
	if sum.Sub(total).Abs().GreaterThan(splitTolerance) {
		return ErrSplitMismatch
	}
	return nil
}

// collected is the part of total taken at placement.
func (p Payment) collected(total decimal.Decimal) decimal.Decimal {
	if !p.IsPaid {
		return decimal.Zero
	}
	return total
}

// CashLedger appends CASH_IN rows for collected payments.
type CashLedger struct{}

// Record posts the payment against an OPEN register of the outlet. A split
// payment produces one row per leg.
func (CashLedger) Record(ctx context.Context, store CashStore, outletID, sessionID, performedBy uuid.UUID, p Payment, total decimal.Decimal) ([]database.CashTransaction, error) {
	register, err := store.GetOpenCashRegister(ctx, database.GetOpenCashRegisterParams{
		ID:       p.CashRegisterID.UUID,
		OutletID: outletID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRegisterNotFound
		}
		return nil, fmt.Errorf("get cash register: %w", err)
	}

	legs := p.Splits
	if p.Method != enum.PaymentMethodSplit {
		legs = []SplitPayment{{Method: p.Method, Amount: total}}
	}

	var txs []database.CashTransaction
	for i, leg := range legs {
		if !leg.Amount.IsPositive() {
			continue
		}
		ct, err := store.CreateCashTransaction(ctx, database.CreateCashTransactionParams{
			RegisterID:     register.ID,
			Amount:         decimalToNumeric(leg.Amount),
			Type:           enum.CashTxIn,
			Source:         enum.CashSourceOrder,
			PaymentMethod:  leg.Method,
			OrderSessionID: uuidToPg(sessionID),
			PerformedBy:    performedBy,
			Description:    fmt.Sprintf("order payment %d/%d", i+1, len(legs)),
		})
		if err != nil {
			return nil, fmt.Errorf("create cash transaction: %w", err)
		}
		txs = append(txs, ct)
	}
	return txs, nil
}
