package auth

import (
	"context"
	"crypto/rsa"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// DefaultTokenExpiration bounds token lifetime when none is configured.
const DefaultTokenExpiration = 8 * time.Hour

// TokenService issues RS256-signed claim tokens. Issuance is a pure
// function of its inputs plus the fixed key pair, so a single instance
// is safe to share across requests.
type TokenService struct {
	keys         *KeyPair
	issuer       string
	ttl          time.Duration
	activitySink ActivitySink
	logger       Logger
	nowFunc      func() time.Time
}

var _ TokenIssuer = (*TokenService)(nil)

// NewTokenService creates a new TokenService instance
func NewTokenService(keys *KeyPair, cfg Config) *TokenService {
	ttl := cfg.GetTokenExpiration()
	if ttl <= 0 {
		ttl = DefaultTokenExpiration
	}
	return &TokenService{
		keys:         keys,
		issuer:       cfg.GetIssuer(),
		ttl:          ttl,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
		nowFunc:      time.Now,
	}
}

// WithActivitySink configures the sink receiving token issuance events.
func (ts *TokenService) WithActivitySink(sink ActivitySink) *TokenService {
	ts.activitySink = normalizeActivitySink(sink)
	return ts
}

func (ts *TokenService) WithLogger(logger Logger) *TokenService {
	if logger != nil {
		ts.logger = logger
	}
	return ts
}

// WithClock injects a custom clock (useful for tests).
func (ts *TokenService) WithClock(clock func() time.Time) *TokenService {
	if clock != nil {
		ts.nowFunc = clock
	}
	return ts
}

// Issue builds the claim set for an authenticated principal and signs
// it. user_id prefers the backend's explicit id over the username.
func (ts *TokenService) Issue(ctx context.Context, principal *Principal) (string, error) {
	if principal == nil {
		return "", goerrors.New("principal is required", goerrors.CategoryBadInput)
	}

	now := ts.nowFunc()
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   principal.Username(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
		Authorities: JoinAuthorities(principal.Authorities()),
		Name:        principal.DisplayName(),
		AuthSource:  string(principal.Source()),
		UserID:      principal.UserID(),
	}

	signed, err := ts.SignClaims(claims)
	if err != nil {
		return "", err
	}
	ts.emit(ctx, principal, now)
	return signed, nil
}

// IssueWithScopes signs a token whose scope claim is set explicitly,
// used by client-credential flows acting on behalf of a user.
func (ts *TokenService) IssueWithScopes(ctx context.Context, principal *Principal, scopes []string) (string, error) {
	if principal == nil {
		return "", goerrors.New("principal is required", goerrors.CategoryBadInput)
	}

	now := ts.nowFunc()
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   principal.Username(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
		Authorities: JoinAuthorities(principal.Authorities()),
		Name:        principal.DisplayName(),
		AuthSource:  string(principal.Source()),
		UserID:      principal.UserID(),
		Scope:       joinScopes(scopes),
	}

	signed, err := ts.SignClaims(claims)
	if err != nil {
		return "", err
	}
	ts.emit(ctx, principal, now)
	return signed, nil
}

func (ts *TokenService) emit(ctx context.Context, principal *Principal, now time.Time) {
	event := ActivityEvent{
		EventType:  ActivityEventTokenIssued,
		Username:   principal.Username(),
		Source:     principal.Source(),
		OccurredAt: now,
	}
	if err := ts.activitySink.Record(ctx, event); err != nil {
		ts.logger.Error("token issue: failed to record activity event: %v", err)
	}
}

// SignClaims signs arbitrary claims using the configured private key.
func (ts *TokenService) SignClaims(claims *TokenClaims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}

	ensureTokenID(&claims.RegisteredClaims)

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedString, err := token.SignedString(ts.keys.Private())
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// PublicKey exposes the verification half of the key pair so relying
// services can check tokens without calling back in.
func (ts *TokenService) PublicKey() *rsa.PublicKey {
	return ts.keys.Public()
}
