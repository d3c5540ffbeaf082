package fs

import (
	"errors"
	"io/fs"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"syscall"
)

// ChaosConfig sets fault probabilities from 0 (never) to 1 (always). The zero
// value injects nothing.
type ChaosConfig struct {
	// ReadFailRate fails ReadFile outright with EACCES, EMFILE or EIO.
	ReadFailRate float64

	// PartialReadRate makes ReadFile return a strict prefix of the file
	// together with EIO.
	PartialReadRate float64

	// WriteFailRate fails WriteFile and CreateFile with EIO, ENOSPC, EDQUOT
	// or EROFS before anything is written.
	WriteFailRate float64

	// RemoveFailRate fails Remove with EACCES, EPERM, EBUSY or EIO.
	RemoveFailRate float64

	// Match limits injection to paths it accepts. Nil matches every path.
	Match func(path string) bool
}

// ChaosMode switches [Chaos] between injecting and passing through.
type ChaosMode uint8

const (
	// ChaosModeActive injects faults according to [ChaosConfig]. This is the
	// default.
	ChaosModeActive ChaosMode = iota

	// ChaosModeNoOp passes every operation to the wrapped FS.
	ChaosModeNoOp
)

// ChaosStats counts injected faults.
type ChaosStats struct {
	ReadFails    int64
	PartialReads int64
	WriteFails   int64
	RemoveFails  int64
}

// Total returns the number of injected faults.
func (s ChaosStats) Total() int64 {
	return s.ReadFails + s.PartialReads + s.WriteFails + s.RemoveFails
}

// chaosError marks an injected error. It wraps an [*fs.PathError] holding a
// real errno, so errors.Is checks against os errors behave as for real
// failures.
type chaosError struct {
	err error
}

func (e *chaosError) Error() string { return "chaos: " + e.err.Error() }

func (e *chaosError) Unwrap() error { return e.err }

// IsChaosErr reports whether err was injected by [Chaos].
func IsChaosErr(err error) bool {
	var injected *chaosError

	return errors.As(err, &injected)
}

// Chaos wraps an [FS] and injects failures with seeded, reproducible odds.
//
// Injected errors never match [fs.ErrNotExist] or [fs.ErrExist]; those
// outcomes always come from the wrapped FS. A failed write never touches the
// target file.
type Chaos struct {
	fsys   FS
	config ChaosConfig
	mode   atomic.Uint32

	mu  sync.Mutex
	rng *rand.Rand

	stats struct {
		read, partial, write, remove atomic.Int64
	}
}

// NewChaos wraps fsys. Panics if fsys is nil.
func NewChaos(fsys FS, seed int64, config ChaosConfig) *Chaos {
	if fsys == nil {
		panic("fs: NewChaos with nil FS")
	}

	return &Chaos{
		fsys:   fsys,
		config: config,
		rng:    rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1)),
	}
}

// SetMode switches between injecting and passing through. Safe for
// concurrent use.
func (c *Chaos) SetMode(m ChaosMode) { c.mode.Store(uint32(m)) }

// Stats returns the faults injected so far.
func (c *Chaos) Stats() ChaosStats {
	return ChaosStats{
		ReadFails:    c.stats.read.Load(),
		PartialReads: c.stats.partial.Load(),
		WriteFails:   c.stats.write.Load(),
		RemoveFails:  c.stats.remove.Load(),
	}
}

func (c *Chaos) ReadFile(path string) ([]byte, error) {
	if c.inject(path, c.config.ReadFailRate) {
		c.stats.read.Add(1)

		return nil, c.fail("read", path, syscall.EACCES, syscall.EMFILE, syscall.EIO)
	}

	data, err := c.fsys.ReadFile(path)
	if err != nil || len(data) < 2 || !c.inject(path, c.config.PartialReadRate) {
		return data, err
	}

	c.stats.partial.Add(1)

	c.mu.Lock()
	cut := 1 + c.rng.IntN(len(data)-1)
	c.mu.Unlock()

	return data[:cut], c.fail("read", path, syscall.EIO)
}

func (c *Chaos) WriteFile(path string, data []byte) error {
	if c.inject(path, c.config.WriteFailRate) {
		c.stats.write.Add(1)

		return c.fail("write", path, syscall.EIO, syscall.ENOSPC, syscall.EDQUOT, syscall.EROFS)
	}

	return c.fsys.WriteFile(path, data)
}

func (c *Chaos) CreateFile(path string, data []byte) error {
	if c.inject(path, c.config.WriteFailRate) {
		c.stats.write.Add(1)

		return c.fail("create", path, syscall.EIO, syscall.ENOSPC, syscall.EDQUOT, syscall.EROFS)
	}

	return c.fsys.CreateFile(path, data)
}

func (c *Chaos) Remove(path string) error {
	if c.inject(path, c.config.RemoveFailRate) {
		c.stats.remove.Add(1)

		return c.fail("remove", path, syscall.EACCES, syscall.EPERM, syscall.EBUSY, syscall.EIO)
	}

	return c.fsys.Remove(path)
}

func (c *Chaos) inject(path string, rate float64) bool {
	if rate <= 0 || ChaosMode(c.mode.Load()) != ChaosModeActive {
		return false
	}

	if c.config.Match != nil && !c.config.Match(path) {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.rng.Float64() < rate
}

func (c *Chaos) fail(op, path string, errnos ...syscall.Errno) error {
	c.mu.Lock()
	errno := errnos[c.rng.IntN(len(errnos))]
	c.mu.Unlock()

	return &chaosError{err: &fs.PathError{Op: op, Path: path, Err: errno}}
}

var _ FS = (*Chaos)(nil)
