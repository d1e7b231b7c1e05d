package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"wallet-ledger/config"

	"golang.org/x/crypto/argon2"
)

const (
	argon2KeyLen  = 32
	argon2SaltLen = 16
)

// Argon2Params are the cost parameters written into every new hash.
type Argon2Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

// DefaultArgon2Params matches the password.* config defaults.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{Time: 1, MemoryKiB: 64 * 1024, Threads: 4}
}

// Argon2ParamsFromConfig converts the password config section. Zero fields
// fall back to the defaults.
func Argon2ParamsFromConfig(cfg config.PasswordConfig) Argon2Params {
	p := DefaultArgon2Params()
	if cfg.Time > 0 {
		p.Time = cfg.Time
	}
	if cfg.MemoryKiB > 0 {
		p.MemoryKiB = cfg.MemoryKiB
	}
	if cfg.Threads > 0 {
		p.Threads = cfg.Threads
	}
	return p
}

// Argon2HashService implements ports.HashService for user passwords using
// Argon2id. Verify reads the parameters back from the stored hash, so
// raising the cost does not lock out existing users.
type Argon2HashService struct {
	params Argon2Params
}

// NewArgon2HashService creates a hasher that writes hashes with params.
func NewArgon2HashService(params Argon2Params) *Argon2HashService {
	return &Argon2HashService{params: params}
}

// Hash returns $argon2id$v=19$m=<mem>,t=<time>,p=<threads>$<salt>$<hash>.
func (s *Argon2HashService) Hash(password string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	p := s.params
	key := argon2.IDKey([]byte(password), salt, p.Time, p.MemoryKiB, p.Threads, argon2KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.MemoryKiB, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks password against a stored hash. A malformed hash is an
// error, a wrong password is (false, nil).
func (s *Argon2HashService) Verify(password string, encodedHash string) (bool, error) {
	stored, err := parseArgon2Hash(encodedHash)
	if err != nil {
		return false, err
	}

	p := stored.params
	candidate := argon2.IDKey([]byte(password), stored.salt, p.Time, p.MemoryKiB, p.Threads, uint32(len(stored.key)))

	return subtle.ConstantTimeCompare(stored.key, candidate) == 1, nil
}

type argon2Hash struct {
	params Argon2Params
	salt   []byte
	key    []byte
}

func parseArgon2Hash(encoded string) (*argon2Hash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return nil, fmt.Errorf("invalid hash format: expected 6 parts, got %d", len(parts))
	}
	if parts[1] != "argon2id" {
		return nil, fmt.Errorf("unsupported algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, fmt.Errorf("parsing version: %w", err)
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("incompatible argon2 version: %d", version)
	}

	h := &argon2Hash{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.params.MemoryKiB, &h.params.Time, &h.params.Threads); err != nil {
		return nil, fmt.Errorf("parsing params: %w", err)
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("decoding salt: %w", err)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, fmt.Errorf("decoding hash: %w", err)
	}
	if len(h.key) == 0 {
		return nil, fmt.Errorf("decoding hash: empty key")
	}
	return h, nil
}
