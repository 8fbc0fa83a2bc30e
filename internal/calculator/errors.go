package calculator

import (
	"errors"

	"github.com/mmynk/groupledger/internal/money"
)

var (
	// ErrInvalidAmount is returned for non-positive totals or negative shares.
	ErrInvalidAmount = money.ErrInvalidAmount
	// ErrShareMismatch is returned when explicit shares don't sum to the total.
	ErrShareMismatch = errors.New("participant shares do not sum to the expense amount")
	// ErrEmptyGroup is returned when an equal split is requested with no members.
	ErrEmptyGroup = errors.New("cannot split equally among zero members")
	// ErrDuplicateParticipant is returned when a member has two explicit shares.
	ErrDuplicateParticipant = errors.New("member listed more than once")
	// ErrLedgerInvariantViolation signals balances that do not sum to zero.
	// It is never caused by user input that passed validation.
	ErrLedgerInvariantViolation = errors.New("ledger invariant violation")
)
