package service

import (
	"context"

	"github.com/mmynk/groupledger/internal/ledger"
	"github.com/mmynk/groupledger/internal/middleware"
	"github.com/mmynk/groupledger/internal/models"
)

// access answers who is calling and what they may touch.
type access struct {
	recorder *ledger.Recorder
}

func callerID(ctx context.Context) (string, error) {
	id := middleware.GetMemberID(ctx)
	if id == "" {
		return "", errNotAuthenticated
	}
	return id, nil
}

// member loads the group and checks that the caller belongs to it.
func (a access) member(ctx context.Context, groupID string) (*models.Group, string, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, "", err
	}
	group, err := a.recorder.GetGroup(ctx, groupID)
	if err != nil {
		return nil, "", err
	}
	if !group.HasMember(caller) {
		return nil, "", errNotGroupMember
	}
	return group, caller, nil
}

// admin loads the group and checks that the caller administers it.
func (a access) admin(ctx context.Context, groupID string) (*models.Group, string, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, "", err
	}
	group, err := a.recorder.GetGroup(ctx, groupID)
	if err != nil {
		return nil, "", err
	}
	if group.AdminID != caller {
		return nil, "", errNotGroupAdmin
	}
	return group, caller, nil
}

// expenseMember loads the expense's group and checks membership.
func (a access) expenseMember(ctx context.Context, expenseID string) (*ledger.ExpenseDetail, string, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, "", err
	}
	detail, err := a.recorder.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, "", err
	}
	if _, _, err := a.member(ctx, detail.Expense.GroupID); err != nil {
		return nil, "", err
	}
	return detail, caller, nil
}
