// Package feed fetches the raw on-chain account buffers one prediction
// cycle consumes: the oracle price account and the pool's two token
// vaults, pinned to a single slot.
package feed

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ErrBadAddress marks a string that is not a valid Solana public key.
var ErrBadAddress = errors.New("invalid account address")

// ValidateAddress checks that s is base58 and decodes to exactly 32 bytes.
func ValidateAddress(s string) error {
	raw, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("%q: %v: %w", s, err, ErrBadAddress)
	}
	if len(raw) != 32 {
		return fmt.Errorf("%q decodes to %d bytes: %w", s, len(raw), ErrBadAddress)
	}
	return nil
}

// IsProgramDerived reports whether a valid address lies off the ed25519
// curve. Program-derived addresses are off-curve by construction, so
// vault addresses (PDAs) normally report true here.
func IsProgramDerived(s string) bool {
	raw, err := base58.Decode(s)
	if err != nil || len(raw) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err != nil
}
