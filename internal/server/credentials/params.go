package credentials

import "runtime"

// Params controls Argon2id cost. MemoryKiB is in KiB as argon2.IDKey expects.
type Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams is a baseline for interactive logins.
func DefaultParams() Params {
	threads := runtime.NumCPU()
	if threads < 1 {
		threads = 1
	}
	if threads > 4 {
		threads = 4
	}

	return Params{
		MemoryKiB:   64 * 1024,
		Iterations:  3,
		Parallelism: uint8(threads), // #nosec G115 -- clamped to [1..4]
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Ceilings on stored Argon2id parameters. They are fixed so that lowering
// the configured cost never strands hashes written under a higher one.
const (
	MaxMemoryKiB   = 1 << 20 // 1 GiB
	MaxIterations  = 64
	MaxParallelism = 64
)

// withinBounds refuses stored parameters that would make a single verify
// unreasonably expensive or that describe a degenerate salt or key.
func withinBounds(got Params) bool {
	switch {
	case got.MemoryKiB > MaxMemoryKiB:
		return false
	case got.Iterations > MaxIterations:
		return false
	case got.Parallelism > MaxParallelism:
		return false
	case got.SaltLength < 8 || got.SaltLength > 64:
		return false
	case got.KeyLength < 16 || got.KeyLength > 128:
		return false
	}
	return true
}
