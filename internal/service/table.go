package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tablebill/api/internal/database"
)

const (
	inviteCodeLength   = 5
	inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789@#"
)

// TableStore defines the DB methods for table occupancy.
type TableStore interface {
	GetTable(ctx context.Context, arg database.GetTableParams) (database.DiningTable, error)
	GetTableForUpdate(ctx context.Context, arg database.GetTableParams) (database.DiningTable, error)
	OccupyTable(ctx context.Context, arg database.OccupyTableParams) (database.DiningTable, error)
	ReleaseTable(ctx context.Context, arg database.ReleaseTableParams) (database.DiningTable, error)
}

// TableAssignment binds dining tables to order sessions.
type TableAssignment struct {
	newCode func() (string, error)
}

func NewTableAssignment() TableAssignment {
	return TableAssignment{newCode: NewInviteCode}
}

// Lock reads the table with a row lock held until the transaction ends.
func (t TableAssignment) Lock(ctx context.Context, store TableStore, outletID, tableID uuid.UUID) (database.DiningTable, error) {
	table, err := store.GetTableForUpdate(ctx, database.GetTableParams{ID: tableID, OutletID: outletID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.DiningTable{}, ErrTableNotFound
		}
		return database.DiningTable{}, fmt.Errorf("lock table: %w", err)
	}
	return table, nil
}

// Occupy binds a free table to sessionID and mints a fresh invite code.
// An already occupied table is reported as ErrTableOccupied.
func (t TableAssignment) Occupy(ctx context.Context, store TableStore, outletID, tableID, sessionID uuid.UUID) (database.DiningTable, error) {
	gen := t.newCode
	if gen == nil {
		gen = NewInviteCode
	}
	code, err := gen()
	if err != nil {
		return database.DiningTable{}, fmt.Errorf("invite code: %w", err)
	}
	table, err := store.OccupyTable(ctx, database.OccupyTableParams{
		ID:         tableID,
		OutletID:   outletID,
		SessionID:  uuidToPg(sessionID),
		InviteCode: textToPg(code),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the table vanished or someone else holds it.
			if _, getErr := store.GetTable(ctx, database.GetTableParams{ID: tableID, OutletID: outletID}); errors.Is(getErr, pgx.ErrNoRows) {
				return database.DiningTable{}, ErrTableNotFound
			}
			return database.DiningTable{}, ErrTableOccupied
		}
		return database.DiningTable{}, fmt.Errorf("occupy table: %w", err)
	}
	return table, nil
}

// Release frees the table if it is still bound to sessionID. A table that
// has already moved on is left untouched.
func (t TableAssignment) Release(ctx context.Context, store TableStore, tableID, sessionID uuid.UUID) (bool, error) {
	_, err := store.ReleaseTable(ctx, database.ReleaseTableParams{
		ID:        tableID,
		SessionID: uuidToPg(sessionID),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("release table: %w", err)
	}
	return true, nil
}

// Admit checks that a locked table is running sessionID and that code is
// the invite code handed to the party sitting there.
func (t TableAssignment) Admit(table database.DiningTable, sessionID uuid.UUID, code string) error {
	if !table.Occupied || !table.CurrentOrderSessionID.Valid || uuid.UUID(table.CurrentOrderSessionID.Bytes) != sessionID {
		return ErrInviteCodeMismatch
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || !table.InviteCode.Valid ||
		subtle.ConstantTimeCompare([]byte(code), []byte(table.InviteCode.String)) != 1 {
		return ErrInviteCodeMismatch
	}
	return nil
}

// NewInviteCode returns a uniformly random 5-character code. Codes are not
// checked for collisions; they only identify one table's live session.
func NewInviteCode() (string, error) {
	limit := big.NewInt(int64(len(inviteCodeAlphabet)))
	code := make([]byte, inviteCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		code[i] = inviteCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
