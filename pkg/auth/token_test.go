package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/mealdash-backend/pkg/config"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "mealdash", ExpirationMinutes: 30}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	actorID := uuid.New()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{ActorID: actorID, Role: enums.RoleDeliveryPartner})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	require.Equal(t, actorID, claims.ActorID)
	require.Equal(t, enums.RoleDeliveryPartner, claims.Role)
	require.Equal(t, cfg.Issuer, claims.Issuer)
	require.Equal(t, actorID.String(), claims.Subject)
	require.NotEmpty(t, claims.ID)
	require.WithinDuration(t, now.Add(30*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestMintAccessTokenValidation(t *testing.T) {
	cfg := testJWTConfig()
	_, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{ActorID: uuid.New(), Role: "chef"})
	require.Error(t, err)
	_, err = MintAccessToken(cfg, time.Now(), AccessTokenPayload{Role: enums.RoleUser})
	require.Error(t, err)
	_, err = MintAccessToken(config.JWTConfig{Issuer: "x", ExpirationMinutes: 1}, time.Now(), AccessTokenPayload{ActorID: uuid.New(), Role: enums.RoleUser})
	require.Error(t, err)
}

func TestParseAccessTokenRejectsExpiredAndWrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{ActorID: uuid.New(), Role: enums.RoleUser, JTI: "fixed"})
	require.NoError(t, err)
	_, err = ParseAccessToken(cfg, token)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)

	fresh, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{ActorID: uuid.New(), Role: enums.RoleAdmin})
	require.NoError(t, err)
	other := cfg
	other.Issuer = "someone-else"
	_, err = ParseAccessToken(other, fresh)
	require.Error(t, err)
}

func TestParseAccessTokenRejectsForeignSignature(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{ActorID: uuid.New(), Role: enums.RoleVendor})
	require.NoError(t, err)

	forged := cfg
	forged.Secret = "another-secret"
	_, err = ParseAccessToken(forged, token)
	require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestParseAccessTokenRunsClaimsValidation(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now()
	claims := AccessTokenClaims{
		Role: enums.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, signed)
	require.ErrorIs(t, err, ErrMissingActor)
}
