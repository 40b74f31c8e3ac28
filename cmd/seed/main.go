package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tablebill/api/internal/auth"
	"github.com/tablebill/api/internal/config"
	"github.com/tablebill/api/internal/enum"
)

// demo holds the ids a fresh seed hands out to client developers.
type demo struct {
	outletID   uuid.UUID
	adminID    uuid.UUID
	staffID    uuid.UUID
	customerID uuid.UUID
	registerID uuid.UUID
	tableIDs   []uuid.UUID
}

func main() {
	outletName := flag.String("outlet", "Tablebill Demo Kitchen", "Outlet name")
	gst := flag.Bool("gst", false, "Enable GST invoices for the outlet")
	prefix := flag.String("prefix", "TB", "GST invoice prefix")
	tables := flag.Int("tables", 6, "Number of dining tables")
	flag.Parse()

	if err := run(*outletName, *gst, *prefix, *tables); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(outletName string, gst bool, prefix string, tables int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	slog.Info("connected to database")

	// all or nothing
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	d, err := existingDemo(ctx, tx, outletName)
	switch {
	case err == nil:
		slog.Info("outlet already seeded, skipping", "outlet", outletName, "outlet_id", d.outletID)
	case errors.Is(err, pgx.ErrNoRows):
		if d, err = seedDemo(ctx, tx, outletName, gst, prefix, tables); err != nil {
			return err
		}
	default:
		return fmt.Errorf("check outlet: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return printTokens(cfg, d)
}

func existingDemo(ctx context.Context, tx pgx.Tx, outletName string) (demo, error) {
	var d demo
	err := tx.QueryRow(ctx, `
		SELECT o.id, o.admin_id, s.id
		FROM outlets o JOIN staff s ON s.outlet_id = o.id
		WHERE o.name = $1 AND o.is_active
		ORDER BY s.created_at LIMIT 1`, outletName).Scan(&d.outletID, &d.adminID, &d.staffID)
	if err != nil {
		return d, err
	}
	err = tx.QueryRow(ctx, `SELECT id FROM customers ORDER BY created_at LIMIT 1`).Scan(&d.customerID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return d, err
	}
	return d, nil
}

func seedDemo(ctx context.Context, tx pgx.Tx, outletName string, gst bool, prefix string, tables int) (demo, error) {
	var d demo

	insert := func(what, sql string, dst *uuid.UUID, args ...any) error {
		if err := tx.QueryRow(ctx, sql, args...).Scan(dst); err != nil {
			return fmt.Errorf("insert %s: %w", what, err)
		}
		return nil
	}

	// --- Actors ---
	if err := insert("admin", `INSERT INTO admins (full_name) VALUES ('Demo Owner') RETURNING id`, &d.adminID); err != nil {
		return d, err
	}
	if err := insert("outlet", `
		INSERT INTO outlets (admin_id, name, gst_enabled, invoice_prefix)
		VALUES ($1, $2, $3, $4) RETURNING id`, &d.outletID, d.adminID, outletName, gst, prefix); err != nil {
		return d, err
	}
	if err := insert("staff", `INSERT INTO staff (outlet_id, full_name) VALUES ($1, 'Demo Cashier') RETURNING id`, &d.staffID, d.outletID); err != nil {
		return d, err
	}
	if err := insert("customer", `INSERT INTO customers (full_name, phone) VALUES ('Walk-in Guest', '0000000000') RETURNING id`, &d.customerID); err != nil {
		return d, err
	}

	// --- Units and raw materials ---
	var kg, gram, piece uuid.UUID
	for name, dst := range map[string]*uuid.UUID{"kg": &kg, "gram": &gram, "piece": &piece} {
		if err := insert("unit "+name, `
			INSERT INTO units (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, dst, name); err != nil {
			return d, err
		}
	}

	var beef, bun, cheese uuid.UUID
	if err := insert("beef", `
		INSERT INTO raw_materials (outlet_id, name, current_stock, minimum_stock_level, minimum_stock_unit_id, consumption_unit_id, conversion_factor, purchased_price_per_item)
		VALUES ($1, 'Beef', 10, 1, $2, $3, 1000, 600) RETURNING id`, &beef, d.outletID, kg, gram); err != nil {
		return d, err
	}
	if err := insert("bun", `
		INSERT INTO raw_materials (outlet_id, name, current_stock, minimum_stock_level, minimum_stock_unit_id, consumption_unit_id, conversion_factor, purchased_price_per_item)
		VALUES ($1, 'Burger bun', 100, 10, $2, $2, 1, 8) RETURNING id`, &bun, d.outletID, piece); err != nil {
		return d, err
	}
	if err := insert("cheese", `
		INSERT INTO raw_materials (outlet_id, name, current_stock, minimum_stock_level, minimum_stock_unit_id, consumption_unit_id, conversion_factor, purchased_price_per_item)
		VALUES ($1, 'Cheese slice', 50, 5, $2, $2, 1, 12) RETURNING id`, &cheese, d.outletID, piece); err != nil {
		return d, err
	}

	// --- Recipes ---
	recipe := func(name string, lines ...[3]any) (uuid.UUID, error) {
		var id uuid.UUID
		if err := insert("recipe "+name, `INSERT INTO item_recipes (outlet_id, name) VALUES ($1, $2) RETURNING id`, &id, d.outletID, name); err != nil {
			return id, err
		}
		for _, l := range lines {
			if _, err := tx.Exec(ctx, `
				INSERT INTO recipe_ingredients (recipe_id, raw_material_id, quantity, unit_id)
				VALUES ($1, $2, $3, $4)`, id, l[0], l[1], l[2]); err != nil {
				return id, fmt.Errorf("insert ingredient for %s: %w", name, err)
			}
		}
		return id, nil
	}

	burgerRecipe, err := recipe("Classic burger", [3]any{beef, 150, gram}, [3]any{bun, 1, piece})
	if err != nil {
		return d, err
	}
	doubleRecipe, err := recipe("Double burger", [3]any{beef, 300, gram}, [3]any{bun, 1, piece})
	if err != nil {
		return d, err
	}
	cheeseRecipe, err := recipe("Cheese slice", [3]any{cheese, 1, piece})
	if err != nil {
		return d, err
	}

	// --- Menu ---
	var burger, addon, tea uuid.UUID
	if err := insert("burger", `
		INSERT INTO menu_items (outlet_id, name, price, net_price, gst, gross_profit, choose_profit, item_recipe_id)
		VALUES ($1, 'Classic burger', 250, 238.10, 11.90, 120, $2, $3) RETURNING id`,
		&burger, d.outletID, enum.ChooseProfitItemRecipe, burgerRecipe); err != nil {
		return d, err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO size_variants (menu_item_id, name, price, net_price, gst, gross_profit, choose_profit, item_recipe_id)
		VALUES ($1, 'Double', 320, 304.76, 15.24, 150, $2, $3)`,
		burger, enum.ChooseProfitItemRecipe, doubleRecipe); err != nil {
		return d, fmt.Errorf("insert size variant: %w", err)
	}
	if err := insert("tea", `
		INSERT INTO menu_items (outlet_id, name, price, net_price, gst, gross_profit, choose_profit)
		VALUES ($1, 'Masala tea', 40, 38.10, 1.90, 25, $2) RETURNING id`,
		&tea, d.outletID, enum.ChooseProfitManualProfit); err != nil {
		return d, err
	}
	if err := insert("addon", `INSERT INTO addons (outlet_id, title) VALUES ($1, 'Extras') RETURNING id`, &addon, d.outletID); err != nil {
		return d, err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO addon_variants (addon_id, name, price, choose_profit, item_recipe_id)
		VALUES ($1, 'Extra cheese', 30, $2, $3)`, addon, enum.ChooseProfitItemRecipe, cheeseRecipe); err != nil {
		return d, fmt.Errorf("insert addon variant: %w", err)
	}

	// --- Floor and till ---
	for i := 1; i <= tables; i++ {
		var id uuid.UUID
		if err := insert("table", `INSERT INTO dining_tables (outlet_id, name) VALUES ($1, $2) RETURNING id`,
			&id, d.outletID, fmt.Sprintf("T%d", i)); err != nil {
			return d, err
		}
		d.tableIDs = append(d.tableIDs, id)
	}
	if err := insert("cash register", `
		INSERT INTO cash_registers (outlet_id, status, opening_balance)
		VALUES ($1, $2, 1000) RETURNING id`, &d.registerID, d.outletID, enum.RegisterStatusOpen); err != nil {
		return d, err
	}

	slog.Info("seeded outlet", "outlet", outletName, "outlet_id", d.outletID, "tables", tables)
	return d, nil
}

func printTokens(cfg *config.Config, d demo) error {
	tokens := []struct {
		kind     string
		actorID  uuid.UUID
		outletID uuid.UUID
	}{
		{enum.ActorAdmin, d.adminID, uuid.Nil},
		{enum.ActorStaff, d.staffID, d.outletID},
		{enum.ActorCustomer, d.customerID, uuid.Nil},
	}

	fmt.Printf("OUTLET_ID=%s\n", d.outletID)
	if d.registerID != uuid.Nil {
		fmt.Printf("CASH_REGISTER_ID=%s\n", d.registerID)
	}
	for i, id := range d.tableIDs {
		fmt.Printf("TABLE_%d_ID=%s\n", i+1, id)
	}
	for _, t := range tokens {
		if t.actorID == uuid.Nil {
			continue
		}
		token, err := auth.GenerateToken(cfg.JWTSecret, t.actorID, t.outletID, t.kind, cfg.TokenTTL)
		if err != nil {
			return fmt.Errorf("token for %s: %w", t.kind, err)
		}
		fmt.Printf("%s_ACTOR_ID=%s\n%s_TOKEN=%s\n", t.kind, t.actorID, t.kind, token)
	}
	return nil
}
