package calculator

import (
	"container/heap"
	"fmt"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
)

// position is one side of the matching: a creditor's claim or a debtor's debt,
// both held as positive amounts.
type position struct {
	member string
	amount money.Money
	order  int // index in the input snapshot, used to break ties
}

// positionHeap is a max-heap by amount, then by input order.
type positionHeap []position

func (h positionHeap) Len() int { return len(h) }

func (h positionHeap) Less(i, j int) bool {
	if c := h[i].amount.Cmp(h[j].amount); c != 0 {
		return c > 0
	}
	return h[i].order < h[j].order
}

func (h positionHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *positionHeap) Push(x any) { *h = append(*h, x.(position)) }

func (h *positionHeap) Pop() any {
	old := *h
	n := len(old)
	p := old[n-1]
	*h = old[:n-1]
	return p
}

// ComputeSettlements reduces a balance snapshot to a list of transfers that
// brings every balance to zero.
//
// Algorithm (greedy largest-first matching):
//   - creditors are members with a positive balance, debtors with a negative one
//   - repeatedly match the largest creditor with the largest debtor and transfer
//     the smaller of the two amounts
//   - whoever still has a remainder goes back into the heap
//
// Ties in magnitude are broken by position in the snapshot, so the same
// snapshot always produces the same transfers. A snapshot that does not sum to
// zero, including one with a single non-zero member, is rejected with
// ErrLedgerInvariantViolation.
func ComputeSettlements(snapshot models.Snapshot) ([]models.Transfer, error) {
	creditors := &positionHeap{}
	debtors := &positionHeap{}
	total := money.Zero
	seen := make(map[string]bool, len(snapshot))

	for i, b := range snapshot {
		if seen[b.MemberID] {
			return nil, fmt.Errorf("%w: member %s appears twice in snapshot", ErrLedgerInvariantViolation, b.MemberID)
		}
		seen[b.MemberID] = true

		amt := money.Snap(b.Amount)
		total = total.Add(amt)
		switch amt.Sign() {
		case 1:
			*creditors = append(*creditors, position{member: b.MemberID, amount: amt, order: i})
		case -1:
			*debtors = append(*debtors, position{member: b.MemberID, amount: amt.Neg(), order: i})
		}
	}
	if !total.IsZero() {
		return nil, fmt.Errorf("%w: snapshot sums to %s", ErrLedgerInvariantViolation, total)
	}

	heap.Init(creditors)
	heap.Init(debtors)

	transfers := []models.Transfer{}
	for creditors.Len() > 0 && debtors.Len() > 0 {
		c := heap.Pop(creditors).(position)
		d := heap.Pop(debtors).(position)

		payment := money.Min(c.amount, d.amount)
		transfers = append(transfers, models.Transfer{
			Debtor:   d.member,
			Creditor: c.member,
			Payment:  payment,
		})

		c.amount = c.amount.Sub(payment)
		d.amount = d.amount.Sub(payment)
		if c.amount.IsPositive() {
			heap.Push(creditors, c)
		}
		if d.amount.IsPositive() {
			heap.Push(debtors, d)
		}
	}

	if creditors.Len() > 0 || debtors.Len() > 0 {
		return nil, fmt.Errorf("%w: %d creditors and %d debtors left unmatched",
			ErrLedgerInvariantViolation, creditors.Len(), debtors.Len())
	}
	return transfers, nil
}

// ApplyTransfers returns the snapshot after every transfer has been paid:
// debtors move up by the payment, creditors down.
func ApplyTransfers(snapshot models.Snapshot, transfers []models.Transfer) models.Snapshot {
	out := make(models.Snapshot, len(snapshot))
	index := make(map[string]int, len(snapshot))
	for i, b := range snapshot {
		out[i] = b
		index[b.MemberID] = i
	}
	for _, t := range transfers {
		if i, ok := index[t.Debtor]; ok {
			out[i].Amount = out[i].Amount.Add(t.Payment)
		}
		if i, ok := index[t.Creditor]; ok {
			out[i].Amount = out[i].Amount.Sub(t.Payment)
		}
	}
	return out
}
