package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	require.NoError(t, Init(time.Hour))
	gameID := uuid.New()

	tok, err := CreateJWT(gameID, 3)
	require.NoError(t, err)

	gotGame, gotPlayer, err := AuthenticateJWT(tok)
	require.NoError(t, err)
	assert.Equal(t, gameID, gotGame)
	assert.Equal(t, 3, gotPlayer)
}

func TestJWTRejectsForeignAndExpiredTokens(t *testing.T) {
	require.NoError(t, Init(time.Hour))
	tok, err := CreateJWT(uuid.New(), 1)
	require.NoError(t, err)

	require.NoError(t, Init(time.Hour))
	_, _, err = AuthenticateJWT(tok)
	assert.Error(t, err, "signed by a previous key")

	expired := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.MapClaims{
		"sub": "1",
		"gid": uuid.NewString(),
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	s, err := expired.SignedString(privateKey)
	require.NoError(t, err)
	_, _, err = AuthenticateJWT(s)
	assert.Error(t, err)

	hmac := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1", "gid": uuid.NewString()})
	s, err = hmac.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, _, err = AuthenticateJWT(s)
	assert.Error(t, err)
}

func TestJWTRequiresClaims(t *testing.T) {
	require.NoError(t, Init(0))
	tok := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.MapClaims{"sub": "2"})
	s, err := tok.SignedString(privateKey)
	require.NoError(t, err)
	_, _, err = AuthenticateJWT(s)
	assert.Error(t, err, "gid is required")
}

func TestPasswordHash(t *testing.T) {
	h, err := CreateHash("wool for wheat", Params)
	require.NoError(t, err)

	ok, err := ComparePasswordAndHash("wool for wheat", h)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ComparePasswordAndHash("wood for brick", h)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = ComparePasswordAndHash("x", "$bcrypt$nope")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestTableGuard(t *testing.T) {
	open, err := NewTableGuard("")
	require.NoError(t, err)
	assert.False(t, open.Protected())
	assert.True(t, open.Admit("anything"))

	locked, err := NewTableGuard("robber")
	require.NoError(t, err)
	assert.True(t, locked.Protected())
	assert.True(t, locked.Admit("robber"))
	assert.False(t, locked.Admit(""))
	assert.False(t, locked.Admit("knight"))
}
