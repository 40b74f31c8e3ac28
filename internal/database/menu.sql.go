package database

import (
	"context"

	"github.com/google/uuid"
)

const getMenuItemForOrder = `SELECT id, outlet_id, name, price, net_price, gst, gross_profit, choose_profit, item_recipe_id, is_available
FROM menu_items
WHERE id = $1 AND outlet_id = $2 AND is_available = true
`

type GetMenuItemForOrderParams struct {
	ID       uuid.UUID `json:"id"`
	OutletID uuid.UUID `json:"outlet_id"`
}

func (q *Queries) GetMenuItemForOrder(ctx context.Context, arg GetMenuItemForOrderParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, getMenuItemForOrder, arg.ID, arg.OutletID)
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.OutletID,
		&i.Name,
		&i.Price,
		&i.NetPrice,
		&i.Gst,
		&i.GrossProfit,
		&i.ChooseProfit,
		&i.ItemRecipeID,
		&i.IsAvailable,
	)
	return i, err
}

const getSizeVariantForOrder = `SELECT id, menu_item_id, name, price, net_price, gst, gross_profit, choose_profit, item_recipe_id
FROM size_variants
WHERE id = $1
`

func (q *Queries) GetSizeVariantForOrder(ctx context.Context, id uuid.UUID) (SizeVariant, error) {
	row := q.db.QueryRow(ctx, getSizeVariantForOrder, id)
	var i SizeVariant
	err := row.Scan(
		&i.ID,
		&i.MenuItemID,
		&i.Name,
		&i.Price,
		&i.NetPrice,
		&i.Gst,
		&i.GrossProfit,
		&i.ChooseProfit,
		&i.ItemRecipeID,
	)
	return i, err
}

const getAddonVariantForOrder = `SELECT v.id, v.addon_id, v.name, v.price, v.choose_profit, v.item_recipe_id
FROM addon_variants v
JOIN addons a ON a.id = v.addon_id
WHERE v.id = $1 AND a.outlet_id = $2
`

type GetAddonVariantForOrderParams struct {
	ID       uuid.UUID `json:"id"`
	OutletID uuid.UUID `json:"outlet_id"`
}

func (q *Queries) GetAddonVariantForOrder(ctx context.Context, arg GetAddonVariantForOrderParams) (AddonVariant, error) {
	row := q.db.QueryRow(ctx, getAddonVariantForOrder, arg.ID, arg.OutletID)
	var i AddonVariant
	err := row.Scan(
		&i.ID,
		&i.AddonID,
		&i.Name,
		&i.Price,
		&i.ChooseProfit,
		&i.ItemRecipeID,
	)
	return i, err
}

const listRecipeIngredients = `SELECT id, recipe_id, raw_material_id, quantity, unit_id
FROM recipe_ingredients
WHERE recipe_id = $1
ORDER BY raw_material_id
`

func (q *Queries) ListRecipeIngredients(ctx context.Context, recipeID uuid.UUID) ([]RecipeIngredient, error) {
	rows, err := q.db.Query(ctx, listRecipeIngredients, recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []RecipeIngredient{}
	for rows.Next() {
		var i RecipeIngredient
		if err := rows.Scan(
			&i.ID,
			&i.RecipeID,
			&i.RawMaterialID,
			&i.Quantity,
			&i.UnitID,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
