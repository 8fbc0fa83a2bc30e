package service

import (
	"github.com/mmynk/groupledger/internal/api"
	"github.com/mmynk/groupledger/internal/ledger"
	"github.com/mmynk/groupledger/internal/models"
)

func toAPIGroup(g *models.Group) *api.Group {
	members := make([]api.Member, len(g.Members))
	for i, m := range g.Members {
		members[i] = toAPIMember(m)
	}
	return &api.Group{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		AdminID:     g.AdminID,
		Members:     members,
		CreatedAt:   g.CreatedAt,
	}
}

func toAPIMember(m models.Member) api.Member {
	return api.Member{ID: m.ID, Name: m.Name, Email: m.Email, JoinedAt: m.JoinedAt}
}

func fromAPIParticipants(in []api.Participant) []models.Participant {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.Participant, len(in))
	for i, p := range in {
		out[i] = models.Participant{MemberID: p.MemberID, PaidAmt: p.PaidAmt}
	}
	return out
}

func toAPIExpense(e *models.Expense) *api.Expense {
	var participants []api.Participant
	for _, p := range e.Participants {
		participants = append(participants, api.Participant{MemberID: p.MemberID, PaidAmt: p.PaidAmt})
	}
	return &api.Expense{
		ID:           e.ID,
		GroupID:      e.GroupID,
		Title:        e.Title,
		Description:  e.Description,
		PayerID:      e.PayerID,
		Amount:       e.Amount,
		Participants: participants,
		AddedBy:      e.AddedBy,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func toAPITransactions(txns []*models.SettlementTransaction) []api.Transaction {
	out := make([]api.Transaction, len(txns))
	for i, t := range txns {
		out[i] = *toAPITransaction(t)
	}
	return out
}

func toAPITransaction(t *models.SettlementTransaction) *api.Transaction {
	return &api.Transaction{
		ID:        t.ID,
		GroupID:   t.GroupID,
		ExpenseID: t.ExpenseID,
		Debtor:    t.Debtor,
		Creditor:  t.Creditor,
		Payment:   t.Payment,
		Kind:      t.Kind.String(),
		CreatedAt: t.CreatedAt,
		CreatedBy: t.CreatedBy,
		Note:      t.Note,
	}
}

func toAPITransfers(transfers []models.Transfer) []api.Transfer {
	out := make([]api.Transfer, len(transfers))
	for i, t := range transfers {
		out[i] = api.Transfer{Debtor: t.Debtor, Creditor: t.Creditor, Payment: t.Payment}
	}
	return out
}

func toAPIGroupBalances(balances []models.GroupBalance) []api.Balance {
	out := make([]api.Balance, len(balances))
	for i, b := range balances {
		out[i] = api.Balance{MemberID: b.MemberID, Balance: b.Balance, IsSettled: b.IsSettled()}
	}
	return out
}

func toAPIExpenseBalances(balances []models.ExpenseBalance) []api.Balance {
	out := make([]api.Balance, len(balances))
	for i, b := range balances {
		out[i] = api.Balance{MemberID: b.MemberID, Balance: b.Balance, IsSettled: b.Balance.IsZero()}
	}
	return out
}

func toAPIDrift(drift []ledger.Drift) []api.Drift {
	out := make([]api.Drift, len(drift))
	for i, d := range drift {
		out[i] = api.Drift{MemberID: d.MemberID, Stored: d.Stored, Replayed: d.Replayed}
	}
	return out
}
