package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestGetOracleKeyPrefersKeyring(t *testing.T) {
	keyring.MockInit()
	t.Setenv(OracleKeyEnv, "from-env")

	require.NoError(t, SetOracleKey("acct", "from-keyring"))
	key, err := GetOracleKey("acct")
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", key)

	require.NoError(t, DeleteOracleKey("acct"))
	key, err = GetOracleKey("acct")
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)
}

func TestGetOracleKeyMissing(t *testing.T) {
	keyring.MockInit()
	t.Setenv(OracleKeyEnv, "")

	_, err := GetOracleKey("nobody")
	assert.ErrorIs(t, err, ErrNoOracleKey)
}

func TestSetOracleKeyRejectsEmpty(t *testing.T) {
	keyring.MockInit()
	assert.Error(t, SetOracleKey("", "k"))
	assert.Error(t, SetOracleKey("acct", " "))
}
