package models

import (
	"crypto/sha256"

	"github.com/mr-tron/base58"
)

// TenantRoute is the result of a metadata directory lookup: which tenant
// database serves an identity and the credentials used to connect to it.
type TenantRoute struct {
	DatabaseName string
	User         string
	Password     string
}

// CredentialFingerprint returns a Base58-encoded SHA256 digest of the route's
// credential pair. Pool caches compare fingerprints to detect rotated
// credentials without holding the plaintext password per entry.
func (r *TenantRoute) CredentialFingerprint() string {
	hash := sha256.Sum256([]byte(r.User + ":" + r.Password))
	return base58.Encode(hash[:])
}
