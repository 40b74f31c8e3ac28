package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tablebill/api/internal/enum"
)

// Claims identify the actor behind a request. Staff tokens are bound to one
// outlet; admin and customer tokens carry uuid.Nil and are checked per
// request against the outlet they touch.
type Claims struct {
	ActorID   uuid.UUID `json:"actor_id"`
	ActorKind string    `json:"actor_kind"`
	OutletID  uuid.UUID `json:"outlet_id"`
	jwt.RegisteredClaims
}

func GenerateToken(secret string, actorID, outletID uuid.UUID, kind string, ttl time.Duration) (string, error) {
	if !enum.IsActorKind(kind) {
		return "", fmt.Errorf("unknown actor kind %q", kind)
	}
	now := time.Now()
	claims := Claims{
		ActorID:   actorID,
		ActorKind: kind,
		OutletID:  outletID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if !enum.IsActorKind(claims.ActorKind) || claims.ActorID == uuid.Nil {
		return nil, fmt.Errorf("invalid actor in token")
	}
	return claims, nil
}

// CanAccessOutlet reports whether the token may address outletID at all.
// Admin ownership is verified later against the database.
func (c *Claims) CanAccessOutlet(outletID uuid.UUID) bool {
	if c.ActorKind == enum.ActorStaff {
		return c.OutletID == outletID
	}
	return true
}
