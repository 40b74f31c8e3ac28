package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tablebill/api/internal/database"
)

const stockPlaces = 4

// StockStore defines the DB methods the stock ledger needs.
type StockStore interface {
	ListRecipeIngredients(ctx context.Context, recipeID uuid.UUID) ([]database.RecipeIngredient, error)
	GetRawMaterial(ctx context.Context, arg database.GetRawMaterialParams) (database.RawMaterial, error)
	DebitRawMaterial(ctx context.Context, arg database.DebitRawMaterialParams) (database.RawMaterial, error)
	CreditRawMaterial(ctx context.Context, arg database.CreditRawMaterialParams) (database.RawMaterial, error)
}

// StockPlan accumulates signed raw-material movements for one transaction.
// Positive amounts are debits, negative amounts are credits, both in the
// raw material's stock-tracking unit.
type StockPlan struct {
	amounts map[uuid.UUID]decimal.Decimal
}

func NewStockPlan() *StockPlan {
	return &StockPlan{amounts: make(map[uuid.UUID]decimal.Decimal)}
}

func (p *StockPlan) add(rawMaterialID uuid.UUID, amount decimal.Decimal) {
	p.amounts[rawMaterialID] = p.amounts[rawMaterialID].Add(amount)
}

// amount is the movement Apply books for a raw material, rounded away from
// zero.
func (p *StockPlan) amount(rawMaterialID uuid.UUID) decimal.Decimal {
	return p.amounts[rawMaterialID].RoundUp(stockPlaces)
}

func (p *StockPlan) empty() bool {
	for id := range p.amounts {
		if !p.amount(id).IsZero() {
			return false
		}
	}
	return true
}

// StockLedger turns sold quantities into raw-material debits.
type StockLedger struct{}

// Plan adds the raw materials consumed by selling quantity units of item to
// plan. A negative quantity plans a credit. Items without a recipe are a
// no-op.
func (StockLedger) Plan(ctx context.Context, store StockStore, outletID uuid.UUID, item HasRecipe, quantity int32, plan *StockPlan) error {
	recipeID, ok := item.RecipeID()
	if !ok || quantity == 0 {
		return nil
	}

	ingredients, err := store.ListRecipeIngredients(ctx, recipeID)
	if err != nil {
		return fmt.Errorf("list recipe ingredients: %w", err)
	}

	sold := decimal.NewFromInt32(quantity)
	for _, ing := range ingredients {
		rm, err := store.GetRawMaterial(ctx, database.GetRawMaterialParams{
			ID:       ing.RawMaterialID,
			OutletID: outletID,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("raw material %s: %w", ing.RawMaterialID, ErrRawMaterialNotFound)
			}
			return fmt.Errorf("get raw material: %w", err)
		}
		amount, err := StockUnits(rm, numericToDecimal(ing.Quantity), ing.UnitID, sold)
		if err != nil {
			return fmt.Errorf("raw material %s: %w", rm.Name, err)
		}
		plan.add(rm.ID, amount)
	}
	return nil
}

// StockUnits converts quantity*sold of a recipe ingredient measured in unitID
// into the raw material's stock-tracking unit. Ingredients measured in the
// minimum-stock unit need no conversion; everything else goes through the
// consumption-unit conversion factor.
func StockUnits(rm database.RawMaterial, quantity decimal.Decimal, unitID uuid.UUID, sold decimal.Decimal) (decimal.Decimal, error) {
	total := quantity.Mul(sold)
	if unitID == rm.MinimumStockUnitID {
		return total, nil
	}
	factor := numericToDecimal(rm.ConversionFactor)
	if !factor.IsPositive() {
		return decimal.Zero, ErrInvalidConversion
	}
	return total.Div(factor), nil
}

// Apply executes the plan in raw-material id order, so concurrent orders
// touching the same materials always lock them in the same sequence. Debits
// are conditional on enough stock being left; a shortfall aborts with an
// InsufficientStockError. It returns the updated rows.
func (StockLedger) Apply(ctx context.Context, store StockStore, outletID uuid.UUID, plan *StockPlan) ([]database.RawMaterial, error) {
	if plan.empty() {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(plan.amounts))
	for id := range plan.amounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})

	var updated []database.RawMaterial
	for _, id := range ids {
		amount := plan.amount(id)
		switch {
		case amount.IsPositive():
			rm, err := store.DebitRawMaterial(ctx, database.DebitRawMaterialParams{
				ID:       id,
				OutletID: outletID,
				Amount:   stockToNumeric(amount),
			})
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, shortfall(ctx, store, outletID, id, amount)
				}
				return nil, fmt.Errorf("debit raw material: %w", err)
			}
			updated = append(updated, rm)
		case amount.IsNegative():
			rm, err := store.CreditRawMaterial(ctx, database.CreditRawMaterialParams{
				ID:       id,
				OutletID: outletID,
				Amount:   stockToNumeric(amount.Neg()),
			})
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, ErrRawMaterialNotFound
				}
				return nil, fmt.Errorf("credit raw material: %w", err)
			}
			updated = append(updated, rm)
		}
	}
	return updated, nil
}

// shortfall explains why a conditional debit matched no row.
func shortfall(ctx context.Context, store StockStore, outletID, id uuid.UUID, required decimal.Decimal) error {
	rm, err := store.GetRawMaterial(ctx, database.GetRawMaterialParams{ID: id, OutletID: outletID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRawMaterialNotFound
		}
		return fmt.Errorf("get raw material: %w", err)
	}
	return &InsufficientStockError{
		RawMaterialID: rm.ID,
		Name:          rm.Name,
		Available:     numericToDecimal(rm.CurrentStock),
		Required:      required,
	}
}

// lowStock filters updated rows down to those at or below their minimum.
func lowStock(rows []database.RawMaterial) []database.RawMaterial {
	var low []database.RawMaterial
	for _, rm := range rows {
		if numericToDecimal(rm.CurrentStock).LessThanOrEqual(numericToDecimal(rm.MinimumStockLevel)) {
			low = append(low, rm)
		}
	}
	return low
}
