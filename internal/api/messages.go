package api

import "github.com/mmynk/groupledger/internal/money"

// Group is a group with its members.
type Group struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	AdminID     string   `json:"admin_id"`
	Members     []Member `json:"members"`
	CreatedAt   int64    `json:"created_at"`
}

// Member is one member of a group.
type Member struct {
	ID       string `json:"id" validate:"required,max=64"`
	Name     string `json:"name,omitempty" validate:"max=100"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	JoinedAt int64  `json:"joined_at,omitempty"`
}

// Participant is an explicit share: what the member paid towards the expense.
type Participant struct {
	MemberID string      `json:"member_id" validate:"required"`
	PaidAmt  money.Money `json:"paid_amt"`
}

// Expense is an expense with its participants.
type Expense struct {
	ID           string        `json:"id"`
	GroupID      string        `json:"group_id"`
	Title        string        `json:"title"`
	Description  string        `json:"description,omitempty"`
	PayerID      string        `json:"payer_id"`
	Amount       money.Money   `json:"amount"`
	Participants []Participant `json:"participants,omitempty"`
	AddedBy      string        `json:"added_by,omitempty"`
	CreatedAt    int64         `json:"created_at"`
	UpdatedAt    int64         `json:"updated_at"`
}

// Balance is one member's balance. Positive means the member is owed money.
type Balance struct {
	MemberID  string      `json:"member_id"`
	Balance   money.Money `json:"balance"`
	IsSettled bool        `json:"is_settled"`
}

// Transfer is a suggested payment.
type Transfer struct {
	Debtor   string      `json:"debtor"`
	Creditor string      `json:"creditor"`
	Payment  money.Money `json:"payment"`
}

// Transaction is a row of the settlement log.
type Transaction struct {
	ID        string      `json:"id"`
	GroupID   string      `json:"group_id"`
	ExpenseID string      `json:"expense_id,omitempty"`
	Debtor    string      `json:"debtor"`
	Creditor  string      `json:"creditor"`
	Payment   money.Money `json:"payment"`
	Kind      string      `json:"kind"`
	CreatedAt int64       `json:"created_at"`
	CreatedBy string      `json:"created_by,omitempty"`
	Note      string      `json:"note,omitempty"`
}

// Drift is a member whose stored balance disagrees with a full replay.
type Drift struct {
	MemberID string      `json:"member_id"`
	Stored   money.Money `json:"stored"`
	Replayed money.Money `json:"replayed"`
}

// Group service.

type CreateGroupRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=500"`
	Members     []Member `json:"members" validate:"dive"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

// UpdateGroupRequest changes name and description; empty fields are kept. A
// non-empty AdminID transfers administration.
type UpdateGroupRequest struct {
	GroupID     string `json:"group_id" validate:"required"`
	Name        string `json:"name" validate:"max=100"`
	Description string `json:"description" validate:"max=500"`
	AdminID     string `json:"admin_id"`
}

type UpdateGroupResponse struct {
	Group *Group `json:"group"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

type DeleteGroupResponse struct{}

type AddMemberRequest struct {
	GroupID string `json:"group_id" validate:"required"`
	Member  Member `json:"member"`
}

type AddMemberResponse struct {
	Member *Member `json:"member"`
}

type RemoveMemberRequest struct {
	GroupID  string `json:"group_id" validate:"required"`
	MemberID string `json:"member_id" validate:"required"`
}

type RemoveMemberResponse struct{}

type GetBalancesRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

type GetBalancesResponse struct {
	Balances []Balance `json:"balances"`
}

type ReconcileGroupRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

type ReconcileGroupResponse struct {
	Drift []Drift `json:"drift"`
}

// Expense service.

type CreateExpenseRequest struct {
	GroupID      string        `json:"group_id" validate:"required"`
	Title        string        `json:"title" validate:"required,max=50"`
	Description  string        `json:"description" validate:"max=500"`
	PayerID      string        `json:"payer_id" validate:"required"`
	Amount       money.Money   `json:"amount"`
	Participants []Participant `json:"participants" validate:"dive"`
}

type CreateExpenseResponse struct {
	Expense  *Expense      `json:"expense"`
	Proposed []Transaction `json:"proposed"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expense_id" validate:"required"`
}

type GetExpenseResponse struct {
	Expense   *Expense  `json:"expense"`
	Balances  []Balance `json:"balances"`
	IsSettled bool      `json:"is_settled"`
}

type ListExpensesRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type UpdateExpenseRequest struct {
	ExpenseID    string        `json:"expense_id" validate:"required"`
	Title        string        `json:"title" validate:"required,max=50"`
	Description  string        `json:"description" validate:"max=500"`
	PayerID      string        `json:"payer_id" validate:"required"`
	Amount       money.Money   `json:"amount"`
	Participants []Participant `json:"participants" validate:"dive"`
}

type UpdateExpenseResponse struct {
	Expense  *Expense      `json:"expense"`
	Proposed []Transaction `json:"proposed"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expense_id" validate:"required"`
}

type DeleteExpenseResponse struct{}

type ListExpenseTransactionsRequest struct {
	ExpenseID string `json:"expense_id" validate:"required"`
}

type ListExpenseTransactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
}

// Settlement service.

type RecordPaymentRequest struct {
	GroupID   string      `json:"group_id" validate:"required"`
	Debtor    string      `json:"debtor" validate:"required"`
	Creditor  string      `json:"creditor" validate:"required"`
	Amount    money.Money `json:"amount"`
	ExpenseID string      `json:"expense_id"`
	Note      string      `json:"note" validate:"max=200"`
}

type RecordPaymentResponse struct {
	Transaction *Transaction `json:"transaction"`
}

type GetSuggestedSettlementsRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

type GetSuggestedSettlementsResponse struct {
	Transfers []Transfer `json:"transfers"`
}

type GetSettlementHistoryRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

type GetSettlementHistoryResponse struct {
	Transactions []Transaction `json:"transactions"`
}
