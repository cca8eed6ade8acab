package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens_IssueAndVerify(t *testing.T) {
	clock := newTestClock()
	tokens := NewTokens(clock.Now)
	user := Realm{Name: RealmUser, Secret: []byte("user-secret"), TTL: time.Hour}

	token, expiresAt, err := tokens.Issue(user, 42, "alice")
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(time.Hour), expiresAt)

	claims, err := tokens.Verify(user, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, uint(42), claims.SubjectID())
	assert.NotEmpty(t, claims.ID)
}

func TestTokens_DistinctWithinSameInstant(t *testing.T) {
	tokens := NewTokens(newTestClock().Now)
	realm := Realm{Name: RealmUser, Secret: []byte("user-secret"), TTL: time.Hour}

	first, _, err := tokens.Issue(realm, 1, "alice")
	require.NoError(t, err)
	second, _, err := tokens.Issue(realm, 1, "alice")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestTokens_Verify(t *testing.T) {
	clock := newTestClock()
	tokens := NewTokens(clock.Now)
	user := Realm{Name: RealmUser, Secret: []byte("user-secret"), TTL: time.Hour}
	admin := Realm{Name: RealmAdmin, Secret: []byte("admin-secret"), TTL: time.Hour}
	sameSecretAdmin := Realm{Name: RealmAdmin, Secret: user.Secret, TTL: time.Hour}

	userToken, _, err := tokens.Issue(user, 1, "alice")
	require.NoError(t, err)
	adminToken, _, err := tokens.Issue(admin, 1, "admin")
	require.NoError(t, err)
	namedSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			Audience:  jwt.ClaimStrings{RealmUser},
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		},
	}).SignedString(user.Secret)
	require.NoError(t, err)

	tests := []struct {
		name    string
		realm   Realm
		token   string
		advance time.Duration
		wantErr error
	}{
		{
			name:    "admin token in user realm",
			realm:   user,
			token:   adminToken,
			wantErr: ErrBadSignature,
		},
		{
			name:    "user token in admin realm",
			realm:   admin,
			token:   userToken,
			wantErr: ErrBadSignature,
		},
		{
			name:    "audience mismatch with shared secret",
			realm:   sameSecretAdmin,
			token:   userToken,
			wantErr: ErrBadSignature,
		},
		{
			name:    "garbage",
			realm:   user,
			token:   "not-a-jwt",
			wantErr: ErrMalformedToken,
		},
		{
			name:    "non-numeric subject",
			realm:   user,
			token:   namedSubject,
			wantErr: ErrMalformedToken,
		},
		{
			name:    "expired",
			realm:   user,
			token:   userToken,
			advance: 2 * time.Hour,
			wantErr: ErrTokenExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := NewTokens(func() time.Time { return clock.Now().Add(tt.advance) })
			_, err := tokens.Verify(tt.realm, tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHasher(t *testing.T) {
	h := NewHasher(newTestConfig().BcryptCost)

	hash, err := h.Hash("secret1")
	require.NoError(t, err)

	other, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "hashes are salted")

	assert.True(t, h.Verify("secret1", hash))
	assert.False(t, h.Verify("secret2", hash))
	assert.False(t, h.Verify("secret1", "not-a-hash"))
}
