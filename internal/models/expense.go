package models

import "github.com/mmynk/groupledger/internal/money"

// Expense represents money paid by one member on behalf of the group.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group the expense belongs to.
	GroupID string

	// Title is unique within the group.
	Title string

	Description string

	// PayerID is the member who paid.
	PayerID string

	// Amount is the expense total. Always strictly positive.
	Amount money.Money

	// Participants are explicit shares. When empty the expense is split
	// equally among all group members.
	Participants []Participant

	// AddedBy is the member who recorded the expense.
	AddedBy string

	CreatedAt int64
	UpdatedAt int64
}

// Participant is one explicit share of an expense: how much the member
// actually paid towards it.
type Participant struct {
	MemberID string
	PaidAmt  money.Money
}

// MemberAmount pairs a member with a signed amount. It is the element type of
// delta maps and balance snapshots.
type MemberAmount struct {
	MemberID string
	Amount   money.Money
}

// Deltas is an ordered delta map: member -> signed balance change.
type Deltas []MemberAmount

// Sum adds every delta.
func (d Deltas) Sum() money.Money {
	total := money.Zero
	for _, e := range d {
		total = total.Add(e.Amount)
	}
	return total
}

// Negate returns the deltas with every sign flipped.
func (d Deltas) Negate() Deltas {
	out := make(Deltas, len(d))
	for i, e := range d {
		out[i] = MemberAmount{MemberID: e.MemberID, Amount: e.Amount.Neg()}
	}
	return out
}

// Get returns the delta for memberID and whether it is present.
func (d Deltas) Get(memberID string) (money.Money, bool) {
	for _, e := range d {
		if e.MemberID == memberID {
			return e.Amount, true
		}
	}
	return money.Zero, false
}
