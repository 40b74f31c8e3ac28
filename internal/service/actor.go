package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tablebill/api/internal/database"
	"github.com/tablebill/api/internal/enum"
)

// Actor is the authenticated party placing or changing an order.
type Actor struct {
	Kind string
	ID   uuid.UUID
}

// ActorStore resolves the three kinds of actor.
type ActorStore interface {
	GetAdmin(ctx context.Context, id uuid.UUID) (database.Admin, error)
	GetStaff(ctx context.Context, arg database.GetStaffParams) (database.Staff, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error)
}

// IsStaffSide reports whether the actor works for the outlet.
func (a Actor) IsStaffSide() bool {
	return a.Kind == enum.ActorAdmin || a.Kind == enum.ActorStaff
}

// authorize rejects a payload actor id that differs from the authenticated one.
func authorize(actor Actor, payloadActorID uuid.UUID) error {
	if !enum.IsActorKind(actor.Kind) || actor.ID == uuid.Nil {
		return ErrActorNotAllowed
	}
	if payloadActorID != actor.ID {
		return ErrActorMismatch
	}
	return nil
}

// resolveActor checks the actor exists and may act for the outlet.
func resolveActor(ctx context.Context, store ActorStore, actor Actor, outlet database.Outlet) error {
	var err error
	switch actor.Kind {
	case enum.ActorAdmin:
		var admin database.Admin
		admin, err = store.GetAdmin(ctx, actor.ID)
		if err == nil && admin.ID != outlet.AdminID {
			return ErrActorNotAllowed
		}
	case enum.ActorStaff:
		_, err = store.GetStaff(ctx, database.GetStaffParams{ID: actor.ID, OutletID: outlet.ID})
	case enum.ActorCustomer:
		_, err = store.GetCustomer(ctx, actor.ID)
	default:
		return ErrActorNotAllowed
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrActorNotFound
		}
		return fmt.Errorf("get %s: %w", actor.Kind, err)
	}
	return nil
}

// ownerColumns fills exactly one of the session's actor columns.
func ownerColumns(actor Actor) (admin, staff, customer pgtype.UUID) {
	id := pgtype.UUID{Bytes: actor.ID, Valid: true}
	switch actor.Kind {
	case enum.ActorAdmin:
		admin = id
	case enum.ActorStaff:
		staff = id
	case enum.ActorCustomer:
		customer = id
	}
	return admin, staff, customer
}
