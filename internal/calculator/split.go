package calculator

import (
	"fmt"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
)

// SplitExpense converts an expense into a per-member delta map.
//
// With no participants the amount is split equally among members: every member
// owes trunc(amount/n) and the remainder cents are owed by the absorber, which
// is the payer when the payer is a member and the first member otherwise. The
// payer is then credited the full amount.
//
// With participants, each participant's delta is what they paid minus their
// equal share of the amount, using the same absorber rule over participants.
// The paid amounts must add up to the expense amount exactly.
//
// The returned deltas always sum to exactly zero.
func SplitExpense(payerID string, amount money.Money, participants []models.Participant, members []string) (models.Deltas, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: expense amount must be greater than zero, got %s", ErrInvalidAmount, amount)
	}

	var (
		deltas models.Deltas
		err    error
	)
	if len(participants) == 0 {
		deltas, err = splitEqually(payerID, amount, members)
	} else {
		deltas, err = splitByShares(payerID, amount, participants)
	}
	if err != nil {
		return nil, err
	}

	if sum := deltas.Sum(); !sum.IsZero() {
		return nil, fmt.Errorf("%w: split of %s sums to %s", ErrLedgerInvariantViolation, amount, sum)
	}
	return deltas, nil
}

func splitEqually(payerID string, amount money.Money, members []string) (models.Deltas, error) {
	if len(members) == 0 {
		return nil, ErrEmptyGroup
	}
	owed, err := equalShares(amount, members, payerID)
	if err != nil {
		return nil, err
	}

	deltas := make(models.Deltas, 0, len(members)+1)
	payerSeen := false
	for i, m := range members {
		d := owed[i].Neg()
		if m == payerID {
			d = d.Add(amount)
			payerSeen = true
		}
		deltas = append(deltas, models.MemberAmount{MemberID: m, Amount: d})
	}
	if !payerSeen {
		deltas = append(deltas, models.MemberAmount{MemberID: payerID, Amount: amount})
	}
	return deltas, nil
}

func splitByShares(payerID string, amount money.Money, participants []models.Participant) (models.Deltas, error) {
	ids := make([]string, len(participants))
	seen := make(map[string]bool, len(participants))
	paid := money.Zero
	for i, p := range participants {
		if seen[p.MemberID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateParticipant, p.MemberID)
		}
		seen[p.MemberID] = true
		if p.PaidAmt.IsNegative() {
			return nil, fmt.Errorf("%w: paid amount for %s is negative", ErrInvalidAmount, p.MemberID)
		}
		ids[i] = p.MemberID
		paid = paid.Add(p.PaidAmt)
	}
	if !paid.Equal(amount) {
		return nil, fmt.Errorf("%w: shares total %s, expense is %s", ErrShareMismatch, paid, amount)
	}

	owed, err := equalShares(amount, ids, payerID)
	if err != nil {
		return nil, err
	}

	deltas := make(models.Deltas, len(participants))
	for i, p := range participants {
		deltas[i] = models.MemberAmount{MemberID: p.MemberID, Amount: p.PaidAmt.Sub(owed[i])}
	}
	return deltas, nil
}

// equalShares returns what each of ids owes so that the shares add up to
// amount exactly. The remainder goes to the payer if present, else to ids[0].
func equalShares(amount money.Money, ids []string, payerID string) ([]money.Money, error) {
	share, remainder, err := amount.Split(len(ids))
	if err != nil {
		return nil, err
	}
	absorber := 0
	for i, id := range ids {
		if id == payerID {
			absorber = i
			break
		}
	}
	owed := make([]money.Money, len(ids))
	for i := range ids {
		owed[i] = share
	}
	owed[absorber] = share.Add(remainder)
	return owed, nil
}
