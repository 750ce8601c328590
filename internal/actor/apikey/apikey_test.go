package apikey

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

func testAccount(t *testing.T, secret string) Account {
	t.Helper()
	hash, err := HashSecret(secret)
	require.NoError(t, err)
	return Account{
		ID:    id.NewActorID(),
		Name:  "reporting-batch",
		Hash:  hash,
		Roles: []string{"reader"},
	}
}

func Test_GenerateSecret(t *testing.T) {
	first, err := GenerateSecret()
	require.NoError(t, err)
	second, err := GenerateSecret()
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func Test_HashSecret_EmptyRejected(t *testing.T) {
	_, err := HashSecret("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func Test_Verify(t *testing.T) {
	account := testAccount(t, "s3cret-value")
	service := NewService([]Account{account})

	got, err := service.Verify("reporting-batch", "s3cret-value")
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)
	assert.True(t, got.Known())
	assert.Equal(t, []string{"reader"}, got.Roles)
}

func Test_Verify_WrongSecret(t *testing.T) {
	service := NewService([]Account{testAccount(t, "s3cret-value")})

	_, err := service.Verify("reporting-batch", "wrong")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_Verify_UnknownAccount(t *testing.T) {
	service := NewService([]Account{testAccount(t, "s3cret-value")})

	_, err := service.Verify("nobody", "s3cret-value")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ParseAccounts(t *testing.T) {
	actorID := id.NewActorID()
	hash, err := HashSecret("secret")
	require.NoError(t, err)

	accounts, err := ParseAccounts([]string{
		actorID.String() + ":reporting-batch:" + hash + ":reader|exporter",
	})
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, actorID, accounts[0].ID)
	assert.Equal(t, "reporting-batch", accounts[0].Name)
	assert.Equal(t, hash, accounts[0].Hash)
	assert.Equal(t, []string{"reader", "exporter"}, accounts[0].Roles)
}

func Test_ParseAccounts_NoRoles(t *testing.T) {
	actorID := id.NewActorID()
	hash, err := HashSecret("secret")
	require.NoError(t, err)

	accounts, err := ParseAccounts([]string{actorID.String() + ":batch:" + hash})
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Empty(t, accounts[0].Roles)
}

func Test_ParseAccounts_Malformed(t *testing.T) {
	_, err := ParseAccounts([]string{"not-enough-parts"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = ParseAccounts([]string{"bad-uuid:name:hash"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func keyRequest(key string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if key != "" {
		r.Header.Set(Header, key)
	}
	return r
}

func Test_Resolve(t *testing.T) {
	account := testAccount(t, "s3cret-value")
	resolver := NewResolver(NewService([]Account{account}))

	t.Run("absent header means not presented", func(t *testing.T) {
		_, presented, err := resolver.Resolve(keyRequest(""))
		require.NoError(t, err)
		assert.False(t, presented)
	})

	t.Run("valid key resolves the service actor", func(t *testing.T) {
		got, presented, err := resolver.Resolve(keyRequest("reporting-batch.s3cret-value"))
		require.NoError(t, err)
		assert.True(t, presented)
		assert.Equal(t, account.ID, got.ID)
	})

	t.Run("malformed key is rejected", func(t *testing.T) {
		_, presented, err := resolver.Resolve(keyRequest("no-separator"))
		assert.True(t, presented)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		_, presented, err := resolver.Resolve(keyRequest("reporting-batch.wrong"))
		assert.True(t, presented)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
