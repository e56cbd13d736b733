package password

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Argon2idParams controls Argon2id hashing cost.
// MemoryKiB is in KiB as required by argon2.IDKey.
type Argon2idParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Policy controls password validation and anti-DoS boundaries.
type Policy struct {
	MinLength int
	MaxLength int
	// RejectVeryWeak rejects trivial passwords ("password", repeated chars, short PINs)
	// and passwords equal to the account email or its local part.
	RejectVeryWeak bool
}

// Config is the single configuration surface for this package.
type Config struct {
	Params Argon2idParams
	Policy Policy
}

// DefaultConfig returns the production baseline. Values can be overridden via env.
func DefaultConfig() Config {
	// Parallelism follows the CPU count, clamped to [1..4] for containers.
	threads := runtime.NumCPU()
	if threads <= 0 {
		threads = 1
	}
	if threads > 4 {
		threads = 4
	}

	return Config{
		Params: Argon2idParams{
			MemoryKiB:   64 * 1024, // 64 MiB
			Iterations:  3,
			Parallelism: uint8(threads), // #nosec G115 -- clamped to [1..4] above; safe conversion.
			SaltLength:  16,
			KeyLength:   32,
		},
		Policy: Policy{
			MinLength:      8,
			MaxLength:      128,
			RejectVeryWeak: true,
		},
	}
}

// LightConfig returns minimum-cost Argon2id parameters with the default policy.
// Only tests and local tooling should use it.
func LightConfig() Config {
	cfg := DefaultConfig()
	cfg.Params = Argon2idParams{
		MemoryKiB:   8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
	return cfg
}

// EnvError reports a rejected environment override.
type EnvError struct {
	Key string
	Err error
}

func (e *EnvError) Error() string { return e.Key + ": " + e.Err.Error() }

func (e *EnvError) Unwrap() error { return e.Err }

// envSettings lists every override FromEnv understands, in application order.
var envSettings = []struct {
	key   string
	apply func(v string, c *Config) error
}{
	{"POLI_PASSWORD_MIN_LEN", func(v string, c *Config) (err error) {
		c.Policy.MinLength, err = parseIntIn(v, 1, 1024)
		return err
	}},
	{"POLI_PASSWORD_MAX_LEN", func(v string, c *Config) (err error) {
		c.Policy.MaxLength, err = parseIntIn(v, 1, 4096)
		return err
	}},
	{"POLI_PASSWORD_REJECT_VERY_WEAK", func(v string, c *Config) (err error) {
		c.Policy.RejectVeryWeak, err = parseBool(v)
		return err
	}},
	{"POLI_ARGON2_MEMORY_KIB", func(v string, c *Config) (err error) {
		c.Params.MemoryKiB, err = parseUint32In(v, 8*1024, 1024*1024) // 8 MiB .. 1 GiB
		return err
	}},
	{"POLI_ARGON2_ITERATIONS", func(v string, c *Config) (err error) {
		c.Params.Iterations, err = parseUint32In(v, 1, 20)
		return err
	}},
	{"POLI_ARGON2_PARALLELISM", func(v string, c *Config) error {
		u, err := parseUint32In(v, 1, 64)
		if err != nil {
			return err
		}
		c.Params.Parallelism = uint8(u) // #nosec G115 -- at most 64.
		return nil
	}},
	{"POLI_ARGON2_SALT_LEN", func(v string, c *Config) (err error) {
		c.Params.SaltLength, err = parseUint32In(v, 8, 64)
		return err
	}},
	{"POLI_ARGON2_KEY_LEN", func(v string, c *Config) (err error) {
		c.Params.KeyLength, err = parseUint32In(v, 16, 64)
		return err
	}},
}

// FromEnv returns DefaultConfig with POLI_PASSWORD_* and POLI_ARGON2_*
// overrides applied. Any unparsable or out-of-range value is an *EnvError.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	for _, s := range envSettings {
		v, ok := os.LookupEnv(s.key)
		if !ok {
			continue
		}
		if err := s.apply(strings.TrimSpace(v), &cfg); err != nil {
			return Config{}, &EnvError{Key: s.key, Err: err}
		}
	}

	if cfg.Policy.MinLength > cfg.Policy.MaxLength {
		return Config{}, fmt.Errorf("password policy invalid: min_len(%d) > max_len(%d)",
			cfg.Policy.MinLength, cfg.Policy.MaxLength)
	}
	return cfg, nil
}

func parseIntIn(s string, minVal, maxVal int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("not an integer")
	}
	if n < minVal || n > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return n, nil
}

func parseUint32In(s string, minVal, maxVal uint32) (uint32, error) {
	u64, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.New("not an unsigned integer")
	}
	u := uint32(u64)
	if u < minVal || u > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return u, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, errors.New("invalid boolean")
	}
}
