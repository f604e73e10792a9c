package keyring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"
)

func TestSetAndGet(t *testing.T) {
	gokeyring.MockInit()

	tests := []struct {
		secret Secret
		value  string
	}{
		{Connection, "postgres://testuser@localhost:5432/testdb?sslmode=disable"},
		{APIKey, "AIza-test-key"},
	}
	for _, tt := range tests {
		t.Run(tt.secret.String(), func(t *testing.T) {
			require.NoError(t, Set(tt.secret, tt.value))
			got, err := Get(tt.secret)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestSecretsAreIndependent(t *testing.T) {
	gokeyring.MockInit()

	require.NoError(t, Set(APIKey, "key"))
	_ = Delete(Connection)

	_, err := GetConnectionString()
	assert.ErrorIs(t, err, ErrNotFound)
	key, err := GetAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "key", key)
}

func TestSetEmpty(t *testing.T) {
	gokeyring.MockInit()
	assert.Error(t, Set(APIKey, ""))
}

func TestDelete(t *testing.T) {
	gokeyring.MockInit()

	require.NoError(t, Set(Connection, "postgres://u@localhost/db"))
	require.NoError(t, Delete(Connection))

	_, err := Get(Connection)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, Delete(Connection), ErrNotFound)
}

func TestParseSecret(t *testing.T) {
	tests := []struct {
		name    string
		want    Secret
		wantErr bool
	}{
		{"connection", Connection, false},
		{"api-key", APIKey, false},
		{"interpreter-api-key", APIKey, false},
		{"password", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSecret(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsAvailable(t *testing.T) {
	gokeyring.MockInit()
	assert.True(t, IsAvailable())
}
