package calculator

import (
	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
)

// ReplayBalances recomputes group balances from scratch out of the per-expense
// deltas and the actual payments of a group. It is the reference the stored
// running balances are reconciled against.
//
// Algorithm:
//   - for each expense: add every member's delta
//   - for each payment: the debtor's balance goes up, the creditor's goes down
//
// Members appear in the result in order of first touch.
func ReplayBalances(expenses []models.Deltas, payments []models.Transfer) models.Snapshot {
	var snapshot models.Snapshot
	index := make(map[string]int)

	add := func(member string, amt money.Money) {
		i, ok := index[member]
		if !ok {
			i = len(snapshot)
			index[member] = i
			snapshot = append(snapshot, models.MemberAmount{MemberID: member})
		}
		snapshot[i].Amount = snapshot[i].Amount.Add(amt)
	}

	for _, deltas := range expenses {
		for _, d := range deltas {
			add(d.MemberID, d.Amount)
		}
	}
	for _, p := range payments {
		add(p.Debtor, p.Payment)
		add(p.Creditor, p.Payment.Neg())
	}

	for i := range snapshot {
		snapshot[i].Amount = money.Snap(snapshot[i].Amount)
	}
	return snapshot
}
