// Package credentials turns plaintext passwords into storable one-way
// hashes and checks candidates against them.
//
// New hashes are Argon2id in the PHC string format:
//
//	$argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<key_b64>
//
// bcrypt hashes ($2a$, $2b$, $2y$) from older deployments still verify.
package credentials

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidHash marks a stored hash that cannot be parsed or is outside
// accepted parameter bounds. It is a data problem, not a wrong password.
var ErrInvalidHash = errors.New("credentials: invalid hash")

var b64 = base64.RawStdEncoding

// Hasher hashes and verifies passwords. The zero value is not usable; use New.
type Hasher struct {
	params Params
}

func New(p Params) *Hasher {
	return &Hasher{params: p}
}

// Hash returns a fresh salted encoding of plaintext. Two calls with the same
// input produce different strings.
func (h *Hasher) Hash(plaintext string) (string, error) {
	salt, err := common.GenerateRandByteArray(int(h.params.SaltLength))
	if err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.params.Iterations, h.params.MemoryKiB, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKiB,
		h.params.Iterations,
		h.params.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	), nil
}

// Verify reports whether plaintext matches encoded: (true, nil) on match,
// (false, nil) on mismatch and (false, ErrInvalidHash) for a malformed hash.
func (h *Hasher) Verify(plaintext, encoded string) (bool, error) {
	if isBcrypt(encoded) {
		return verifyBcrypt(plaintext, encoded)
	}

	params, salt, want, err := decode(encoded)
	if err != nil {
		return false, err
	}
	if !withinBounds(params) {
		return false, ErrInvalidHash
	}

	got := argon2.IDKey([]byte(plaintext), salt, params.Iterations, params.MemoryKiB, params.Parallelism, params.KeyLength)

	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func isBcrypt(encoded string) bool {
	for _, p := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(encoded, p) {
			return true
		}
	}
	return false
}

func verifyBcrypt(plaintext, encoded string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
}

func decode(encoded string) (Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, nil, ErrInvalidHash
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return Params{}, nil, nil, ErrInvalidHash
	}

	var mem, it, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &it, &par); err != nil {
		return Params{}, nil, nil, ErrInvalidHash
	}
	// Sscanf stops at the last verb and ignores anything after it
	if fmt.Sprintf("m=%d,t=%d,p=%d", mem, it, par) != parts[3] {
		return Params{}, nil, nil, ErrInvalidHash
	}
	if mem == 0 || it == 0 || par == 0 || par > 255 {
		return Params{}, nil, nil, ErrInvalidHash
	}

	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return Params{}, nil, nil, ErrInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil {
		return Params{}, nil, nil, ErrInvalidHash
	}

	return Params{
		MemoryKiB:   mem,
		Iterations:  it,
		Parallelism: uint8(par),       // #nosec G115 -- checked above
		SaltLength:  uint32(len(salt)), // #nosec G115 -- bounded by withinBounds
		KeyLength:   uint32(len(key)),  // #nosec G115 -- bounded by withinBounds
	}, salt, key, nil
}
