package entity

import "github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"

// Identity names a participant. The host supplies it; it is opaque here.
type Identity string

func (that Identity) Validate() error {
	if that == "" {
		return apperror.ErrInvalidIdentity
	}
	return nil
}
