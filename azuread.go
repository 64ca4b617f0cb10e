package auth

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// azureADClaims is the subset of the Azure AD id-token claim set this
// service cares about.
type azureADClaims struct {
	jwt.RegisteredClaims
	PreferredUsername string `json:"preferred_username,omitempty"`
	Email             string `json:"email,omitempty"`
	Name              string `json:"name,omitempty"`
	ObjectID          string `json:"oid,omitempty"`
}

// AzureADReader validates federated Azure AD tokens against the
// tenant's JWKS endpoint and maps them to external principals. It is
// the "already externally authenticated" issuance path: federated users
// carry no backend record, so display name and identity come straight
// off the foreign token.
type AzureADReader struct {
	jwks   *keyfunc.JWKS
	logger Logger
}

var _ TokenReader = (*AzureADReader)(nil)

// NewAzureADReader fetches the JWKS and keeps it refreshed in the
// background for the life of the process.
func NewAzureADReader(jwksURL string) (*AzureADReader, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to do a background refresh of JWT set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to fetch JWKS")
	}
	return &AzureADReader{
		jwks:   jwks,
		logger: defLogger{},
	}, nil
}

// NewAzureADReaderWithKeyfunc builds a reader over an existing JWKS,
// useful for tests with a local key set.
func NewAzureADReaderWithKeyfunc(jwks *keyfunc.JWKS) *AzureADReader {
	return &AzureADReader{
		jwks:   jwks,
		logger: defLogger{},
	}
}

func (r *AzureADReader) WithLogger(logger Logger) *AzureADReader {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Read validates a federated token and maps it to an azuread-sourced
// principal. Same expiry semantics as the local reader: expired reads
// as absent.
func (r *AzureADReader) Read(tokenString string) (*Principal, error) {
	claims := &azureADClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, r.jwks.Keyfunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			r.logger.Debug("azuread token expired, treating as absent")
			return nil, nil
		}
		if IsMalformedTokenError(err) {
			return nil, ErrTokenMalformed
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "unable to verify azuread token")
	}

	username := claims.PreferredUsername
	if username == "" {
		username = claims.Email
	}
	if username == "" {
		return nil, goerrors.New("azuread token carries no username claim", goerrors.CategoryAuth)
	}

	displayName := claims.Name
	if displayName == "" {
		displayName = username
	}

	principal := NewExternalPrincipal(SourceAzureAD, azureADUsername(username, claims.ObjectID), displayName, nil)
	return principal, nil
}

// Close stops the background JWKS refresh.
func (r *AzureADReader) Close() {
	if r.jwks != nil {
		r.jwks.EndBackground()
	}
}

// azureADUsername keys federated users by email, suffixed with the
// directory object id when present so renamed mailboxes stay stable.
func azureADUsername(email, objectID string) string {
	email = strings.TrimSpace(email)
	if objectID == "" {
		return email
	}
	return fmt.Sprintf("%s/%s", objectID, email)
}
