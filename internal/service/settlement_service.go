package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/groupledger/internal/api"
	"github.com/mmynk/groupledger/internal/ledger"
)

// SettlementService implements api.SettlementServiceHandler.
type SettlementService struct {
	access
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(recorder *ledger.Recorder) *SettlementService {
	return &SettlementService{access{recorder: recorder}}
}

// RecordPayment appends an actual payment between two members.
func (s *SettlementService) RecordPayment(
	ctx context.Context,
	req *connect.Request[api.RecordPaymentRequest],
) (*connect.Response[api.RecordPaymentResponse], error) {
	slog.Info("RecordPayment request received",
		"group_id", req.Msg.GroupID,
		"debtor", req.Msg.Debtor,
		"creditor", req.Msg.Creditor,
		"amount", req.Msg.Amount,
	)

	if err := api.Validate(req.Msg); err != nil {
		return nil, toConnectError("RecordPayment", err)
	}
	_, caller, err := s.member(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("RecordPayment", err)
	}

	txn, err := s.recorder.RecordPayment(ctx, ledger.Payment{
		GroupID:   req.Msg.GroupID,
		Debtor:    req.Msg.Debtor,
		Creditor:  req.Msg.Creditor,
		Amount:    req.Msg.Amount,
		ExpenseID: req.Msg.ExpenseID,
		CreatedBy: caller,
		Note:      req.Msg.Note,
	})
	if err != nil {
		return nil, toConnectError("RecordPayment", err)
	}
	return connect.NewResponse(&api.RecordPaymentResponse{Transaction: toAPITransaction(txn)}), nil
}

// GetSuggestedSettlements nets the group's balances into a short list of
// transfers.
func (s *SettlementService) GetSuggestedSettlements(
	ctx context.Context,
	req *connect.Request[api.GetSuggestedSettlementsRequest],
) (*connect.Response[api.GetSuggestedSettlementsResponse], error) {
	slog.Info("GetSuggestedSettlements request received", "group_id", req.Msg.GroupID)

	if err := api.Validate(req.Msg); err != nil {
		return nil, toConnectError("GetSuggestedSettlements", err)
	}
	if _, _, err := s.member(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError("GetSuggestedSettlements", err)
	}
	transfers, err := s.recorder.SuggestedSettlements(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("GetSuggestedSettlements", err)
	}
	return connect.NewResponse(&api.GetSuggestedSettlementsResponse{Transfers: toAPITransfers(transfers)}), nil
}

func (s *SettlementService) GetSettlementHistory(
	ctx context.Context,
	req *connect.Request[api.GetSettlementHistoryRequest],
) (*connect.Response[api.GetSettlementHistoryResponse], error) {
	slog.Info("GetSettlementHistory request received", "group_id", req.Msg.GroupID)

	if err := api.Validate(req.Msg); err != nil {
		return nil, toConnectError("GetSettlementHistory", err)
	}
	if _, _, err := s.member(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError("GetSettlementHistory", err)
	}
	txns, err := s.recorder.SettlementHistory(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("GetSettlementHistory", err)
	}
	return connect.NewResponse(&api.GetSettlementHistoryResponse{Transactions: toAPITransactions(txns)}), nil
}
