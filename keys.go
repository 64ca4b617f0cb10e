package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// KeyPair wraps the deployment RSA key pair used to sign and verify
// tokens. The private half stays inside this process; the public half
// is published so relying services verify tokens on their own.
type KeyPair struct {
	private *rsa.PrivateKey
}

// LoadKeyPair parses a PEM-encoded RSA private key (PKCS#1 or PKCS#8).
func LoadKeyPair(privatePEM []byte) (*KeyPair, error) {
	block, _ := pem.Decode(privatePEM)
	if block == nil {
		return nil, goerrors.New("no PEM block in private key material", goerrors.CategoryBadInput)
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return &KeyPair{private: key}, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse private key")
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, goerrors.New("private key is not RSA", goerrors.CategoryBadInput)
	}
	return &KeyPair{private: key}, nil
}

// GenerateKeyPair creates an ephemeral pair, for tests and local runs.
func GenerateKeyPair(bits int) (*KeyPair, error) {
	if bits == 0 {
		bits = 2048
	}
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to generate key pair")
	}
	return &KeyPair{private: key}, nil
}

func (kp *KeyPair) Private() *rsa.PrivateKey {
	return kp.private
}

func (kp *KeyPair) Public() *rsa.PublicKey {
	return &kp.private.PublicKey
}

// PublicPEM renders the public key as PEM, wrapped at 64 characters per
// line, the format relying parties expect to fetch.
func (kp *KeyPair) PublicPEM() (string, error) {
	der, err := x509.MarshalPKIXPublicKey(kp.Public())
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "unable to marshal public key")
	}

	var sb strings.Builder
	if err := pem.Encode(&sb, &pem.Block{Type: "PUBLIC KEY", Bytes: der}); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "unable to encode public key")
	}
	return sb.String(), nil
}
