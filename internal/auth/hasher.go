// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

package auth

import (
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // G505: sha1 is accepted only when verifying older records
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"hash"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters used for new hashes.
const (
	pbkdf2Iterations = 100_000
	pbkdf2Digest     = "sha256"
	pbkdf2SaltLen    = 16 // salt length in bytes
	pbkdf2KeyLen     = 32 // derived key length in bytes
)

// Bounds on the work a stored record can demand.
const (
	maxRecordIterations = 10_000_000
	maxRecordKeyLen     = sha512.Size
)

// digests maps record digest names to their hash constructors.
var digests = map[string]func() hash.Hash{
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
}

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash derives a self-describing hash record from the password.
	Hash(password string) (string, error)

	// Verify reports whether the password matches the record.
	// A malformed record is never a match.
	Verify(password, record string) bool
}

// HashRecord is a parsed credential hash: iterations:digest:saltHex:keyHex.
type HashRecord struct {
	Iterations int
	Digest     string
	Salt       []byte
	Key        []byte
}

// String encodes the record in its stored form.
func (r HashRecord) String() string {
	return strconv.Itoa(r.Iterations) + ":" + r.Digest + ":" +
		hex.EncodeToString(r.Salt) + ":" + hex.EncodeToString(r.Key)
}

// ParseHashRecord decodes a stored hash record.
func ParseHashRecord(s string) (HashRecord, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return HashRecord{}, oops.Code("AUTH_INVALID_HASH").Errorf("hash record must have 4 fields, got %d", len(parts))
	}
	for i, p := range parts {
		if p == "" {
			return HashRecord{}, oops.Code("AUTH_INVALID_HASH").With("field", i).Errorf("hash record field is empty")
		}
	}

	iterations, err := strconv.Atoi(parts[0])
	if err != nil {
		return HashRecord{}, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if iterations < 1 || iterations > maxRecordIterations {
		return HashRecord{}, oops.Code("AUTH_INVALID_HASH").
			With("iterations", iterations).
			Errorf("iteration count out of range")
	}

	if _, ok := digests[parts[1]]; !ok {
		return HashRecord{}, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported digest: %s", parts[1])
	}

	salt, err := hex.DecodeString(parts[2])
	if err != nil {
		return HashRecord{}, oops.Code("AUTH_INVALID_HASH").With("field", "salt").Wrap(err)
	}
	key, err := hex.DecodeString(parts[3])
	if err != nil {
		return HashRecord{}, oops.Code("AUTH_INVALID_HASH").With("field", "key").Wrap(err)
	}
	if len(key) > maxRecordKeyLen {
		return HashRecord{}, oops.Code("AUTH_INVALID_HASH").
			With("key_len", len(key)).
			Errorf("derived key longer than %d bytes", maxRecordKeyLen)
	}

	return HashRecord{
		Iterations: iterations,
		Digest:     parts[1],
		Salt:       salt,
		Key:        key,
	}, nil
}

// PBKDF2Hasher implements PasswordHasher using PBKDF2-HMAC.
type PBKDF2Hasher struct{}

// NewPBKDF2Hasher creates a new PBKDF2Hasher.
func NewPBKDF2Hasher() *PBKDF2Hasher {
	return &PBKDF2Hasher{}
}

// Hash derives a PBKDF2-HMAC-SHA256 record with a fresh random salt.
func (h *PBKDF2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, pbkdf2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLen, digests[pbkdf2Digest])

	return HashRecord{
		Iterations: pbkdf2Iterations,
		Digest:     pbkdf2Digest,
		Salt:       salt,
		Key:        key,
	}.String(), nil
}

// Verify re-derives the key with the record's parameters and compares in
// constant time.
func (h *PBKDF2Hasher) Verify(password, record string) bool {
	rec, err := ParseHashRecord(record)
	if err != nil {
		return false
	}

	derived := pbkdf2.Key([]byte(password), rec.Salt, rec.Iterations, len(rec.Key), digests[rec.Digest])
	if len(derived) != len(rec.Key) {
		return false
	}
	return subtle.ConstantTimeCompare(derived, rec.Key) == 1
}
