// Package gateway implements the auth and middleware logic used across
// pushgate endpoints: signed-request verification, tenant admin tokens,
// request instrumentation and rate limiting.
package gateway

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mr-tron/base58"

	"github.com/nashir/pushgate/fields"
)

// ClientIDContextKey carries the verified client identity from the signature
// middleware to the handler.
const ClientIDContextKey = "verified_client_id"

var ErrSignatureInvalid = errors.New("invalid request signature")

// did:key ed25519 keys are multibase base58btc ('z' prefix) over a two-byte
// multicodec (0xed 0x01) followed by the 32-byte public key.
const multibaseBase58BTC = 'z'

var ed25519Multicodec = []byte{0xed, 0x01}

// DecodeIdentityKey extracts the ed25519 public key from a client identity,
// with or without the did:key prefix.
func DecodeIdentityKey(id string) (ed25519.PublicKey, error) {
	id = fields.NormalizeClientID(id)
	if len(id) < 2 || id[0] != multibaseBase58BTC {
		return nil, fmt.Errorf("%w: client identity is not multibase base58btc", ErrSignatureInvalid)
	}
	raw, err := base58.Decode(id[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	if len(raw) != len(ed25519Multicodec)+ed25519.PublicKeySize ||
		raw[0] != ed25519Multicodec[0] || raw[1] != ed25519Multicodec[1] {
		return nil, fmt.Errorf("%w: client identity is not an ed25519 key", ErrSignatureInvalid)
	}
	return ed25519.PublicKey(raw[2:]), nil
}

// EncodeIdentityKey is the inverse of DecodeIdentityKey, used by provisioning
// tools and tests to derive a client id from a public key.
func EncodeIdentityKey(key ed25519.PublicKey) string {
	raw := append(append([]byte{}, ed25519Multicodec...), key...)
	return string(multibaseBase58BTC) + base58.Encode(raw)
}

// VerifyIdentity validates a signed request token: an EdDSA JWT whose issuer
// is the client identity (the key material), whose audience is this server's
// externally reachable address, and whose subject names the client the
// request acts on. Returns the verified subject identity.
func VerifyIdentity(rawToken, audience string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (interface{}, error) {
		return DecodeIdentityKey(claims.Issuer)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithAudience(audience),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	subject := fields.NormalizeClientID(claims.Subject)
	if subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrSignatureInvalid)
	}
	if subject != fields.NormalizeClientID(claims.Issuer) {
		return "", fmt.Errorf("%w: subject does not match signing identity", ErrSignatureInvalid)
	}
	return subject, nil
}

// RequireValidSignature gates a route on a valid signed request token. This
// runs before any store access; a rejection never reaches the stores. When
// enabled is false (local deployments) the gate is a no-op.
func RequireValidSignature(enabled bool, audience string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}
		raw := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, fields.NewFailureResponse(fields.ResponseError{
				Name:    "SignatureInvalid",
				Message: "missing request signature",
			}).WithField("Authorization", "signed request token", fields.LocationHeader))
			return
		}
		id, err := VerifyIdentity(raw, audience)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, fields.NewFailureResponse(fields.ResponseError{
				Name:    "SignatureInvalid",
				Message: err.Error(),
			}).WithField("Authorization", "signed request token", fields.LocationHeader))
			return
		}
		c.Set(ClientIDContextKey, id)
		c.Next()
	}
}

// VerifiedClientID returns the identity the signature middleware verified,
// or "" when signature validation is disabled.
func VerifiedClientID(c *gin.Context) string {
	if v, ok := c.Get(ClientIDContextKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
