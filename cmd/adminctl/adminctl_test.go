package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arq/internal/auth/credentials"
	"arq/internal/auth/models"
	"arq/internal/auth/session"
)

const testSecret = "adminctl-test-secret-at-least-32-bytes"

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ADMIN_SESSION_SECRET", "")
	t.Setenv("RATE_LIMIT_POLICIES", "")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHashPassword(t *testing.T) {
	t.Run("entry verifies through the credential store", func(t *testing.T) {
		out, err := execute(t, "correct horse\n", "hash-password", "--username", "arqadmin", "--cost", "4")
		require.NoError(t, err)

		entries, err := credentials.Parse(strings.TrimSpace(out))
		require.NoError(t, err)
		store, err := credentials.New(entries)
		require.NoError(t, err)
		assert.True(t, store.VerifyCredentials("arqadmin", "correct horse"))
		assert.False(t, store.VerifyCredentials("arqadmin", "correct horse\n"))
	})

	t.Run("empty stdin", func(t *testing.T) {
		_, err := execute(t, "", "hash-password", "--cost", "4")
		require.Error(t, err)
	})

	t.Run("empty password", func(t *testing.T) {
		_, err := execute(t, "\n", "hash-password", "--cost", "4")
		require.Error(t, err)
	})

	t.Run("username with separator", func(t *testing.T) {
		_, err := execute(t, "pw\n", "hash-password", "--username", "a:b", "--cost", "4")
		require.Error(t, err)
	})

	t.Run("cost out of range", func(t *testing.T) {
		_, err := execute(t, "pw\n", "hash-password", "--cost", "99")
		require.Error(t, err)
	})
}

func TestGenSecret(t *testing.T) {
	out, err := execute(t, "", "gen-secret")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(strings.TrimSpace(out)), 32)

	_, err = execute(t, "", "gen-secret", "--bytes", "8")
	require.Error(t, err)
}

func TestMintSession(t *testing.T) {
	t.Run("token verifies with the same secret", func(t *testing.T) {
		out, err := execute(t, "", "mint-session", "--username", "arqadmin", "--secret", testSecret)
		require.NoError(t, err)

		authority, err := session.New([]byte(testSecret))
		require.NoError(t, err)
		claims := authority.VerifySession(strings.TrimSpace(out))
		require.NotNil(t, claims)
		assert.Equal(t, "arqadmin", claims.Username)
		assert.True(t, claims.IsAdminSession())
	})

	t.Run("json output carries the cookie", func(t *testing.T) {
		out, err := execute(t, "", "mint-session", "--username", "arqadmin", "--secret", testSecret, "--ttl", "1h", "--json")
		require.NoError(t, err)

		var minted mintedSession
		require.NoError(t, json.Unmarshal([]byte(out), &minted))
		assert.Equal(t, "arqadmin", minted.Username)
		assert.Equal(t, models.SessionCookieName+"="+minted.Token, minted.Cookie)
	})

	t.Run("secret is required", func(t *testing.T) {
		_, err := execute(t, "", "mint-session", "--username", "arqadmin")
		require.Error(t, err)
	})

	t.Run("short secret is rejected", func(t *testing.T) {
		_, err := execute(t, "", "mint-session", "--username", "arqadmin", "--secret", "short")
		require.Error(t, err)
	})

	t.Run("username is required", func(t *testing.T) {
		_, err := execute(t, "", "mint-session", "--secret", testSecret)
		require.Error(t, err)
	})
}

func TestPolicies(t *testing.T) {
	t.Run("table lists every class", func(t *testing.T) {
		out, err := execute(t, "", "policies")
		require.NoError(t, err)
		for _, class := range []string{"api", "auth", "chat", "sensitive"} {
			assert.Contains(t, out, class)
		}
		assert.Contains(t, out, "5/15m0s")
	})

	t.Run("overrides apply", func(t *testing.T) {
		out, err := execute(t, "", "policies", "--overrides", "auth=3/10m", "--json")
		require.NoError(t, err)

		var rows []policyRow
		require.NoError(t, json.Unmarshal([]byte(out), &rows))
		require.Len(t, rows, 4)
		assert.Equal(t, "auth", rows[1].Class)
		assert.Equal(t, 3, rows[1].MaxRequests)
		assert.Equal(t, int64(600), rows[1].WindowSeconds)
	})

	t.Run("bad override", func(t *testing.T) {
		_, err := execute(t, "", "policies", "--overrides", "auth=lots")
		require.Error(t, err)
	})
}
