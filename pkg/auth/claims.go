package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/mealdash-backend/pkg/enums"
)

var (
	ErrMissingActor = errors.New("actor id is required")
	ErrInvalidRole  = errors.New("invalid role")
)

// AccessTokenPayload is what a caller supplies when minting. ActorID is the
// id of the users, vendors, delivery_partners or admins row matching Role.
type AccessTokenPayload struct {
	ActorID uuid.UUID
	Role    enums.Role
	JTI     string
}

// AccessTokenClaims is the body of every issued token.
type AccessTokenClaims struct {
	ActorID uuid.UUID  `json:"actor_id"`
	Role    enums.Role `json:"role"`
	jwt.RegisteredClaims
}

// Validate runs after the registered claims checks when a token is parsed.
func (c AccessTokenClaims) Validate() error {
	return checkActor(c.ActorID, c.Role)
}

func checkActor(id uuid.UUID, role enums.Role) error {
	if id == uuid.Nil {
		return ErrMissingActor
	}
	if !role.IsValid() {
		return fmt.Errorf("%w %q", ErrInvalidRole, role)
	}
	return nil
}
