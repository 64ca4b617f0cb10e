package auth

import (
	"crypto/rsa"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// ErrTokenMalformed is returned when a token cannot be parsed at all.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(goerrors.CodeUnauthorized)

// TokenParser verifies tokens against the RSA public key and rebuilds
// the principal they describe. Expiry is not an error: clock-based
// expiry racing the surrounding cookie's own expiry is expected, so an
// expired token reads as absent and the caller re-prompts.
type TokenParser struct {
	publicKey *rsa.PublicKey
	logger    Logger
}

var _ TokenReader = (*TokenParser)(nil)

func NewTokenParser(publicKey *rsa.PublicKey) *TokenParser {
	return &TokenParser{
		publicKey: publicKey,
		logger:    defLogger{},
	}
}

func (tp *TokenParser) WithLogger(logger Logger) *TokenParser {
	if logger != nil {
		tp.logger = logger
	}
	return tp
}

// Read parses and verifies a token. Returns (nil, nil) for expired
// tokens, an error for anything else that fails verification.
func (tp *TokenParser) Read(tokenString string) (*Principal, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return tp.publicKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			tp.logger.Debug("token expired, treating as absent")
			return nil, nil
		}
		if IsMalformedTokenError(err) {
			return nil, ErrTokenMalformed
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "unable to verify token")
	}

	return claims.Principal(), nil
}

// ReadClaims exposes the raw verified claims for callers that need more
// than the principal, e.g. scope inspection. Same expiry semantics as
// Read.
func (tp *TokenParser) ReadClaims(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return tp.publicKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, nil
		}
		if IsMalformedTokenError(err) {
			return nil, ErrTokenMalformed
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "unable to verify token")
	}

	return claims, nil
}

// IsMalformedTokenError will check for error message
func IsMalformedTokenError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, jwt.ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed")
}

// MultiTokenReader tries readers in order until one accepts the token.
// A token signed by a different issuer fails the wrong reader with a
// signature error, so every failure moves on to the next reader and the
// last error stands when none accept. Used to take both locally issued
// and federated tokens on the same surface.
type MultiTokenReader struct {
	readers []TokenReader
}

// NewMultiTokenReader filters nil readers and returns a composite reader.
func NewMultiTokenReader(readers ...TokenReader) *MultiTokenReader {
	filtered := make([]TokenReader, 0, len(readers))
	for _, r := range readers {
		if r != nil {
			filtered = append(filtered, r)
		}
	}
	return &MultiTokenReader{readers: filtered}
}

// Read satisfies the TokenReader interface.
func (m *MultiTokenReader) Read(tokenString string) (*Principal, error) {
	var lastErr error
	for _, r := range m.readers {
		principal, err := r.Read(tokenString)
		if err == nil {
			return principal, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrTokenMalformed
}
