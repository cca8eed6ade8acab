package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Realm is a signing context. Tokens issued in one realm never verify in
// another: each realm has its own secret and its own audience.
type Realm struct {
	Name   string
	Secret []byte
	TTL    time.Duration
}

const (
	RealmUser  = "user"
	RealmAdmin = "admin"
)

type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims

	subjectID uint
}

// SubjectID returns the record id carried in the sub claim. It is set by
// Verify.
func (c *Claims) SubjectID() uint {
	return c.subjectID
}

// Tokens issues and verifies HS256 session tokens.
type Tokens struct {
	now func() time.Time
}

func NewTokens(now func() time.Time) *Tokens {
	if now == nil {
		now = time.Now
	}
	return &Tokens{now: now}
}

func (t *Tokens) Issue(realm Realm, id uint, username string) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(realm.TTL)
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(id), 10),
			Audience:  jwt.ClaimStrings{realm.Name},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(realm.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks signature, realm and expiry, returning ErrMalformedToken,
// ErrBadSignature or ErrTokenExpired on failure.
func (t *Tokens) Verify(realm Realm, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return realm.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(realm.Name),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, classifyTokenError(err)
	}

	if !token.Valid {
		return nil, ErrBadSignature
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrMalformedToken
	}
	claims.subjectID = uint(id)

	return claims, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ErrBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrMalformedToken
	}
}
