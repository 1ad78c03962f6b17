package gateway

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nashir/pushgate/fields"
)

const testAudience = "push.example.com"

func testIdentity(t *testing.T) (string, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return EncodeIdentityKey(pub), priv
}

func signedToken(t *testing.T, clientID string, priv ed25519.PrivateKey, audience string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Issuer:    fields.DecentralizedIdentifierPrefix + clientID,
		Subject:   clientID,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(priv)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

func TestIdentityKeyRoundTrip(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	id := EncodeIdentityKey(pub)
	decoded, err := DecodeIdentityKey(id)
	if err != nil {
		t.Fatalf("DecodeIdentityKey: %v", err)
	}
	if !pub.Equal(decoded) {
		t.Error("decoded key does not match original")
	}

	// The did:key form decodes to the same key.
	decoded, err = DecodeIdentityKey(fields.DecentralizedIdentifierPrefix + id)
	if err != nil {
		t.Fatalf("DecodeIdentityKey with prefix: %v", err)
	}
	if !pub.Equal(decoded) {
		t.Error("prefixed decode does not match original")
	}
}

func TestDecodeIdentityKey_Invalid(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"empty", ""},
		{"wrong multibase", "x6MkpTHR8VNs"},
		{"not base58", "z0OIl"},
		{"wrong multicodec", "z3usc4zeqTpCHycjuro8qSmN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeIdentityKey(tt.id); err == nil {
				t.Errorf("DecodeIdentityKey(%q) succeeded, want error", tt.id)
			}
		})
	}
}

func TestVerifyIdentity(t *testing.T) {
	clientID, priv := testIdentity(t)

	id, err := VerifyIdentity(signedToken(t, clientID, priv, testAudience), testAudience)
	if err != nil {
		t.Fatalf("VerifyIdentity: %v", err)
	}
	if id != clientID {
		t.Errorf("verified id = %q, want %q", id, clientID)
	}
}

func TestVerifyIdentity_WrongAudience(t *testing.T) {
	clientID, priv := testIdentity(t)
	if _, err := VerifyIdentity(signedToken(t, clientID, priv, "other.example.com"), testAudience); err == nil {
		t.Error("token for another audience must be rejected")
	}
}

func TestVerifyIdentity_Expired(t *testing.T) {
	clientID, priv := testIdentity(t)
	claims := jwt.RegisteredClaims{
		Issuer:    clientID,
		Subject:   clientID,
		Audience:  jwt.ClaimStrings{testAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(priv)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := VerifyIdentity(raw, testAudience); err == nil {
		t.Error("expired token must be rejected")
	}
}

func TestVerifyIdentity_WrongKey(t *testing.T) {
	clientID, _ := testIdentity(t)
	_, otherPriv := testIdentity(t)
	if _, err := VerifyIdentity(signedToken(t, clientID, otherPriv, testAudience), testAudience); err == nil {
		t.Error("token signed by a different key must be rejected")
	}
}

func TestVerifyIdentity_RejectsSymmetricAlg(t *testing.T) {
	clientID, _ := testIdentity(t)
	claims := jwt.RegisteredClaims{
		Issuer:   clientID,
		Subject:  clientID,
		Audience: jwt.ClaimStrings{testAudience},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(clientID))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := VerifyIdentity(raw, testAudience); err == nil {
		t.Error("HS256 token must be rejected, only EdDSA is acceptable")
	}
}

func TestVerifyIdentity_MissingSubject(t *testing.T) {
	clientID, priv := testIdentity(t)
	claims := jwt.RegisteredClaims{
		Issuer:    fields.DecentralizedIdentifierPrefix + clientID,
		Audience:  jwt.ClaimStrings{testAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(priv)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := VerifyIdentity(raw, testAudience); err == nil {
		t.Error("token without a subject must be rejected")
	}
}

func TestVerifyIdentity_Malformed(t *testing.T) {
	if _, err := VerifyIdentity("not-a-jwt", testAudience); err == nil {
		t.Error("malformed token must be rejected")
	}
}
