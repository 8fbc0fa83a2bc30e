package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/groupledger/internal/api"
	"github.com/mmynk/groupledger/internal/ledger"
	"github.com/mmynk/groupledger/internal/models"
)

// ExpenseService implements api.ExpenseServiceHandler.
type ExpenseService struct {
	access
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(recorder *ledger.Recorder) *ExpenseService {
	return &ExpenseService{access{recorder: recorder}}
}

// CreateExpense records an expense and returns the transfers that settle it.
func (s *ExpenseService) CreateExpense(
	ctx context.Context,
	req *connect.Request[api.CreateExpenseRequest],
) (*connect.Response[api.CreateExpenseResponse], error) {
	slog.Info("CreateExpense request received",
		"group_id", req.Msg.GroupID,
		"title", req.Msg.Title,
		"amount", req.Msg.Amount,
		"participants", len(req.Msg.Participants),
	)

	if err := api.Validate(req.Msg); err != nil {
		return nil, toConnectError("CreateExpense", err)
	}
	_, caller, err := s.member(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("CreateExpense", err)
	}

	result, err := s.recorder.CreateExpense(ctx, &models.Expense{
		GroupID:      req.Msg.GroupID,
		Title:        req.Msg.Title,
		Description:  req.Msg.Description,
		PayerID:      req.Msg.PayerID,
		Amount:       req.Msg.Amount,
		Participants: fromAPIParticipants(req.Msg.Participants),
		AddedBy:      caller,
	})
	if err != nil {
		return nil, toConnectError("CreateExpense", err)
	}

	return connect.NewResponse(&api.CreateExpenseResponse{
		Expense:  toAPIExpense(result.Expense),
		Proposed: toAPITransactions(result.Proposed),
	}), nil
}

func (s *ExpenseService) GetExpense(
	ctx context.Context,
	req *connect.Request[api.GetExpenseRequest],
) (*connect.Response[api.GetExpenseResponse], error) {
	slog.Info("GetExpense request received", "expense_id", req.Msg.ExpenseID)

	if err := api.Validate(req.Msg); err != nil {
		return nil, toConnectError("GetExpense", err)
	}
	detail, _, err := s.expenseMember(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError("GetExpense", err)
	}

	return connect.NewResponse(&api.GetExpenseResponse{
		Expense:   toAPIExpense(detail.Expense),
		Balances:  toAPIExpenseBalances(detail.Balances),
		IsSettled: detail.IsSettled,
	}), nil
}

func (s *ExpenseService) ListExpenses(
	ctx context.Context,
	req *connect.Request[api.ListExpensesRequest],
) (*connect.Response[api.ListExpensesResponse], error) {
	slog.Info("ListExpenses request received", "group_id", req.Msg.GroupID)

	if err := api.Validate(req.Msg); err != nil {
		return nil, toConnectError("ListExpenses", err)
	}
	if _, _, err := s.member(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError("ListExpenses", err)
	}
	expenses, err := s.recorder.ListExpenses(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("ListExpenses", err)
	}

	out := make([]*api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toAPIExpense(e)
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// UpdateExpense replaces an expense and regenerates its proposed transfers.
func (s *ExpenseService) UpdateExpense(
	ctx context.Context,
	req *connect.Request[api.UpdateExpenseRequest],
) (*connect.Response[api.UpdateExpenseResponse], error) {
	slog.Info("UpdateExpense request received", "expense_id", req.Msg.ExpenseID, "amount", req.Msg.Amount)

	if err := api.Validate(req.Msg); err != nil {
		return nil, toConnectError("UpdateExpense", err)
	}
	if _, _, err := s.expenseMember(ctx, req.Msg.ExpenseID); err != nil {
		return nil, toConnectError("UpdateExpense", err)
	}

	result, err := s.recorder.UpdateExpense(ctx, &models.Expense{
		ID:           req.Msg.ExpenseID,
		Title:        req.Msg.Title,
		Description:  req.Msg.Description,
		PayerID:      req.Msg.PayerID,
		Amount:       req.Msg.Amount,
		Participants: fromAPIParticipants(req.Msg.Participants),
	})
	if err != nil {
		return nil, toConnectError("UpdateExpense", err)
	}

	return connect.NewResponse(&api.UpdateExpenseResponse{
		Expense:  toAPIExpense(result.Expense),
		Proposed: toAPITransactions(result.Proposed),
	}), nil
}

func (s *ExpenseService) DeleteExpense(
	ctx context.Context,
	req *connect.Request[api.DeleteExpenseRequest],
) (*connect.Response[api.DeleteExpenseResponse], error) {
	slog.Info("DeleteExpense request received", "expense_id", req.Msg.ExpenseID)

	if err := api.Validate(req.Msg); err != nil {
		return nil, toConnectError("DeleteExpense", err)
	}
	if _, _, err := s.expenseMember(ctx, req.Msg.ExpenseID); err != nil {
		return nil, toConnectError("DeleteExpense", err)
	}
	if err := s.recorder.DeleteExpense(ctx, req.Msg.ExpenseID); err != nil {
		return nil, toConnectError("DeleteExpense", err)
	}
	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// ListExpenseTransactions returns the proposed and actual rows of an expense.
func (s *ExpenseService) ListExpenseTransactions(
	ctx context.Context,
	req *connect.Request[api.ListExpenseTransactionsRequest],
) (*connect.Response[api.ListExpenseTransactionsResponse], error) {
	slog.Info("ListExpenseTransactions request received", "expense_id", req.Msg.ExpenseID)

	if err := api.Validate(req.Msg); err != nil {
		return nil, toConnectError("ListExpenseTransactions", err)
	}
	if _, _, err := s.expenseMember(ctx, req.Msg.ExpenseID); err != nil {
		return nil, toConnectError("ListExpenseTransactions", err)
	}
	txns, err := s.recorder.ExpenseTransactions(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError("ListExpenseTransactions", err)
	}
	return connect.NewResponse(&api.ListExpenseTransactionsResponse{Transactions: toAPITransactions(txns)}), nil
}
