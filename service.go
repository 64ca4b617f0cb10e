package auth

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// Service bundles the engine a host wires from one Config: the
// dispatcher for the configured provider, the token service, the
// saved-request codec, and the federated reader when a JWKS endpoint is
// configured. Which backend serves a deployment is decided here, at
// startup, never per request.
type Service struct {
	dispatcher    *Dispatcher
	tokens        *TokenService
	savedRequests *SavedRequestCache
	azure         *AzureADReader
}

// ServiceOption customizes service assembly.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	logger Logger
	sink   ActivitySink
}

// WithServiceLogger sets the logger shared by every assembled component.
func WithServiceLogger(logger Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithServiceActivitySink sets the sink shared by every assembled component.
func WithServiceActivitySink(sink ActivitySink) ServiceOption {
	return func(o *serviceOptions) {
		o.sink = normalizeActivitySink(sink)
	}
}

// NewService assembles the authentication engine from configuration.
// Backends are registered per source and the configured provider picks
// one; the lock threshold, MFA roles, cookie name, token expiration,
// issuer, and JWKS endpoint all come off the same Config.
func NewService(cfg Config, backends map[AuthSource]IdentityBackend, counters RetryCounterStore, keys *KeyPair, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		return nil, goerrors.New("config is required", goerrors.CategoryBadInput)
	}
	if keys == nil {
		return nil, goerrors.New("signing key pair is required", goerrors.CategoryBadInput)
	}

	provider := cfg.GetProvider()
	backend := backends[provider]
	if backend == nil {
		return nil, goerrors.New(
			fmt.Sprintf("no identity backend registered for provider %q", provider),
			goerrors.CategoryBadInput,
		)
	}

	if counters == nil {
		counters = NewMemoryRetryCounterStore()
	}

	options := serviceOptions{
		logger: defLogger{},
		sink:   noopActivitySink{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	// Oracle-backed stores hash server-side; others just never match
	// oracle records.
	hasher, _ := backend.(SaltedHasher)
	verifier := NewDelegatingVerifier(hasher).WithLogger(options.logger)

	lockout := NewLockout(counters,
		WithLockoutThreshold(cfg.GetLockThreshold()),
		WithLockoutActivitySink(options.sink),
		WithLockoutLogger(options.logger),
	)

	dispatcher := NewDispatcher(backend, verifier, lockout).
		WithLogger(options.logger).
		WithActivitySink(options.sink)
	if roles := cfg.GetMfaRoles(); len(roles) > 0 {
		dispatcher.WithMfaPolicy(NewMfaPolicy(roles))
	}

	svc := &Service{
		dispatcher: dispatcher,
		tokens: NewTokenService(keys, cfg).
			WithLogger(options.logger).
			WithActivitySink(options.sink),
		savedRequests: NewSavedRequestCache(cfg.GetSavedRequestCookieName()).
			WithLogger(options.logger),
	}

	if endpoint := cfg.GetJWKSEndpoint(); endpoint != "" {
		azure, err := NewAzureADReader(endpoint)
		if err != nil {
			return nil, err
		}
		svc.azure = azure.WithLogger(options.logger)
	}

	return svc, nil
}

func (s *Service) Dispatcher() *Dispatcher {
	return s.dispatcher
}

func (s *Service) Tokens() *TokenService {
	return s.tokens
}

func (s *Service) SavedRequests() *SavedRequestCache {
	return s.savedRequests
}

// FederatedReader returns the Azure AD reader, nil when no JWKS
// endpoint is configured.
func (s *Service) FederatedReader() *AzureADReader {
	return s.azure
}

// TokenReader returns the verification surface for inbound tokens:
// the local parser alone, or chained with the federated reader when one
// is configured.
func (s *Service) TokenReader() TokenReader {
	parser := NewTokenParser(s.tokens.PublicKey())
	if s.azure == nil {
		return parser
	}
	return NewMultiTokenReader(parser, s.azure)
}

// Close stops background JWKS refreshing when a federated reader exists.
func (s *Service) Close() {
	if s.azure != nil {
		s.azure.Close()
	}
}
