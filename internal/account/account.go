// Package account models the persistent byte regions an invocation is given
// access to. In the original runtime these were program accounts addressed
// by index; here each region is an explicit capability handle passed into
// the code that needs it, never ambient state.
package account

import (
	"errors"
	"fmt"
)

// Errors returned by region operations.
var (
	// ErrShortBuffer is returned when account data is too short to contain
	// the field being read.
	ErrShortBuffer = errors.New("account data too short")

	// ErrSizeMismatch is returned when a commit does not cover the whole
	// declared region.
	ErrSizeMismatch = errors.New("commit must write the whole region")
)

// Region is a named persistent byte buffer with whole-buffer commit
// semantics: readers get a copy, and the only way to mutate is to commit a
// complete replacement buffer. Partially-written state is never observable.
type Region struct {
	name string
	size int // declared size; 0 means unsized (grows to committed length)
	data []byte
}

// NewRegion creates a region with the given initial contents.
func NewRegion(name string, data []byte) *Region {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Region{name: name, data: buf}
}

// NewSizedRegion creates a region with a declared size. Commits must write
// exactly size bytes.
func NewSizedRegion(name string, size int) *Region {
	return &Region{name: name, size: size, data: make([]byte, size)}
}

// Name returns the region name.
func (r *Region) Name() string { return r.name }

// Len returns the current data length.
func (r *Region) Len() int { return len(r.data) }

// Bytes returns a copy of the region contents.
func (r *Region) Bytes() []byte {
	buf := make([]byte, len(r.data))
	copy(buf, r.data)
	return buf
}

// Commit replaces the region contents wholesale. For sized regions the
// buffer must match the declared size exactly.
func (r *Region) Commit(buf []byte) error {
	if r.size > 0 && len(buf) != r.size {
		return fmt.Errorf("region %s: committed %d bytes, declared %d: %w",
			r.name, len(buf), r.size, ErrSizeMismatch)
	}
	data := make([]byte, len(buf))
	copy(data, buf)
	r.data = data
	return nil
}
