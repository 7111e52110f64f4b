package auth

import (
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestPlayerTokenRoundTrip(t *testing.T) {
	playerID := uuid.New()
	sessionID := uuid.New()

	token, err := CreatePlayerToken(playerID, sessionID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	gotPlayer, gotSession, err := AuthenticatePlayerToken(token)
	require.NoError(t, err)
	assert.Equal(t, playerID, gotPlayer)
	assert.Equal(t, sessionID, gotSession, "token binds the player to its session")
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	_, _, err := AuthenticatePlayerToken("not.a.jwt")
	assert.Error(t, err)

	_, _, err = AuthenticatePlayerToken("")
	assert.Error(t, err)
}

func TestAuthenticateRejectsTamperedToken(t *testing.T) {
	token, err := CreatePlayerToken(uuid.New(), uuid.New())
	require.NoError(t, err)

	tampered := token[:len(token)-4] + "AAAA"
	_, _, err = AuthenticatePlayerToken(tampered)
	assert.Error(t, err, "signature must not verify after mutation")
}
