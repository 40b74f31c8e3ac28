package service

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tablebill/api/internal/database"
	"github.com/tablebill/api/internal/enum"
)

// HasRecipe is implemented by anything sellable that may consume raw
// materials when sold.
type HasRecipe interface {
	RecipeID() (uuid.UUID, bool)
}

// recipeRef is the recipe binding shared by menu items, size variants and
// addon variants.
type recipeRef struct {
	chooseProfit string
	itemRecipeID pgtype.UUID
}

func (r recipeRef) RecipeID() (uuid.UUID, bool) {
	if r.chooseProfit != enum.ChooseProfitItemRecipe || !r.itemRecipeID.Valid {
		return uuid.Nil, false
	}
	return uuid.UUID(r.itemRecipeID.Bytes), true
}

func menuItemRecipe(m database.MenuItem) HasRecipe {
	return recipeRef{chooseProfit: m.ChooseProfit, itemRecipeID: m.ItemRecipeID}
}

func sizeVariantRecipe(v database.SizeVariant) HasRecipe {
	return recipeRef{chooseProfit: v.ChooseProfit, itemRecipeID: v.ItemRecipeID}
}

func addonVariantRecipe(v database.AddonVariant) HasRecipe {
	return recipeRef{chooseProfit: v.ChooseProfit, itemRecipeID: v.ItemRecipeID}
}

// PriceSnapshot is the per-unit price of a line item, copied from the menu
// when the order is placed and never re-derived afterwards.
type PriceSnapshot struct {
	Name         string
	OriginalRate decimal.Decimal
	NetPrice     decimal.Decimal
	Gst          decimal.Decimal
	GrossProfit  decimal.Decimal
}

func snapshotMenuItem(m database.MenuItem) PriceSnapshot {
	return PriceSnapshot{
		Name:         m.Name,
		OriginalRate: numericToDecimal(m.Price),
		NetPrice:     numericToDecimal(m.NetPrice),
		Gst:          numericToDecimal(m.Gst),
		GrossProfit:  numericToDecimal(m.GrossProfit),
	}
}

// snapshotSizeVariant overrides every price field with the variant's.
func snapshotSizeVariant(m database.MenuItem, v database.SizeVariant) PriceSnapshot {
	return PriceSnapshot{
		Name:         m.Name + " (" + v.Name + ")",
		OriginalRate: numericToDecimal(v.Price),
		NetPrice:     numericToDecimal(v.NetPrice),
		Gst:          numericToDecimal(v.Gst),
		GrossProfit:  numericToDecimal(v.GrossProfit),
	}
}

// LineTotal is (rate + addons) * quantity.
func (p PriceSnapshot) LineTotal(addons decimal.Decimal, quantity int32) decimal.Decimal {
	return p.OriginalRate.Add(addons).Mul(decimal.NewFromInt32(quantity))
}
