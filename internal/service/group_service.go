package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/groupledger/internal/api"
	"github.com/mmynk/groupledger/internal/ledger"
	"github.com/mmynk/groupledger/internal/models"
)

// GroupService implements api.GroupServiceHandler.
type GroupService struct {
	access
}

// NewGroupService creates a new GroupService.
func NewGroupService(recorder *ledger.Recorder) *GroupService {
	return &GroupService{access{recorder: recorder}}
}

// CreateGroup creates a group administered by the caller.
func (s *GroupService) CreateGroup(
	ctx context.Context,
	req *connect.Request[api.CreateGroupRequest],
) (*connect.Response[api.CreateGroupResponse], error) {
	slog.Info("CreateGroup request received", "name", req.Msg.Name, "members", len(req.Msg.Members))

	if err := api.Validate(req.Msg); err != nil {
		return nil, toConnectError("CreateGroup", err)
	}
	caller, err := callerID(ctx)
	if err != nil {
		return nil, toConnectError("CreateGroup", err)
	}

	group := &models.Group{
		Name:        req.Msg.Name,
		Description: req.Msg.Description,
		AdminID:     caller,
	}
	for _, m := range req.Msg.Members {
		group.Members = append(group.Members, models.Member{ID: m.ID, Name: m.Name, Email: m.Email})
	}
	if err := s.recorder.CreateGroup(ctx, group); err != nil {
		return nil, toConnectError("CreateGroup", err)
	}

	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group)}), nil
}

// GetGroup returns a group the caller belongs to.
func (s *GroupService) GetGroup(
	ctx context.Context,
	req *connect.Request[api.GetGroupRequest],
) (*connect.Response[api.GetGroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	if err := api.Validate(req.Msg); err != nil {
		return nil, toConnectError("GetGroup", err)
	}
	group, _, err := s.member(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("GetGroup", err)
	}
	return connect.NewResponse(&api.GetGroupResponse{Group: toAPIGroup(group)}), nil
}

// ListGroups returns the caller's groups.
func (s *GroupService) ListGroups(
	ctx context.Context,
	req *connect.Request[api.ListGroupsRequest],
) (*connect.Response[api.ListGroupsResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, toConnectError("ListGroups", err)
	}
	slog.Info("ListGroups request received", "member_id", caller)

	groups, err := s.recorder.ListGroups(ctx, caller)
	if err != nil {
		return nil, toConnectError("ListGroups", err)
	}
	out := make([]*api.Group, len(groups))
	for i, g := range groups {
		out[i] = toAPIGroup(g)
	}
	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

func (s *GroupService) UpdateGroup(
	ctx context.Context,
	req *connect.Request[api.UpdateGroupRequest],
) (*connect.Response[api.UpdateGroupResponse], error) {
	slog.Info("UpdateGroup request received", "group_id", req.Msg.GroupID)

	if err := api.Validate(req.Msg); err != nil {
		return nil, toConnectError("UpdateGroup", err)
	}
	if _, _, err := s.admin(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError("UpdateGroup", err)
	}

	group, err := s.recorder.UpdateGroup(ctx, &models.Group{
		ID:          req.Msg.GroupID,
		Name:        req.Msg.Name,
		Description: req.Msg.Description,
		AdminID:     req.Msg.AdminID,
	})
	if err != nil {
		return nil, toConnectError("UpdateGroup", err)
	}
	return connect.NewResponse(&api.UpdateGroupResponse{Group: toAPIGroup(group)}), nil
}

func (s *GroupService) DeleteGroup(
	ctx context.Context,
	req *connect.Request[api.DeleteGroupRequest],
) (*connect.Response[api.DeleteGroupResponse], error) {
	slog.Info("DeleteGroup request received", "group_id", req.Msg.GroupID)

	if err := api.Validate(req.Msg); err != nil {
		return nil, toConnectError("DeleteGroup", err)
	}
	if _, _, err := s.admin(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError("DeleteGroup", err)
	}
	if err := s.recorder.DeleteGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError("DeleteGroup", err)
	}
	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}

func (s *GroupService) AddMember(
	ctx context.Context,
	req *connect.Request[api.AddMemberRequest],
) (*connect.Response[api.AddMemberResponse], error) {
	slog.Info("AddMember request received", "group_id", req.Msg.GroupID, "member_id", req.Msg.Member.ID)

	if err := api.Validate(req.Msg); err != nil {
		return nil, toConnectError("AddMember", err)
	}
	if _, _, err := s.admin(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError("AddMember", err)
	}

	member := &models.Member{
		ID:      req.Msg.Member.ID,
		GroupID: req.Msg.GroupID,
		Name:    req.Msg.Member.Name,
		Email:   req.Msg.Member.Email,
	}
	if err := s.recorder.AddMember(ctx, member); err != nil {
		return nil, toConnectError("AddMember", err)
	}
	out := toAPIMember(*member)
	return connect.NewResponse(&api.AddMemberResponse{Member: &out}), nil
}

// RemoveMember removes a member. The admin may remove anyone; other members
// may only remove themselves.
func (s *GroupService) RemoveMember(
	ctx context.Context,
	req *connect.Request[api.RemoveMemberRequest],
) (*connect.Response[api.RemoveMemberResponse], error) {
	slog.Info("RemoveMember request received", "group_id", req.Msg.GroupID, "member_id", req.Msg.MemberID)

	if err := api.Validate(req.Msg); err != nil {
		return nil, toConnectError("RemoveMember", err)
	}
	group, caller, err := s.member(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("RemoveMember", err)
	}
	if caller != group.AdminID && caller != req.Msg.MemberID {
		return nil, toConnectError("RemoveMember", errNotGroupAdmin)
	}
	if err := s.recorder.RemoveMember(ctx, req.Msg.GroupID, req.Msg.MemberID); err != nil {
		return nil, toConnectError("RemoveMember", err)
	}
	return connect.NewResponse(&api.RemoveMemberResponse{}), nil
}

// GetBalances returns every member's running balance in the group.
func (s *GroupService) GetBalances(
	ctx context.Context,
	req *connect.Request[api.GetBalancesRequest],
) (*connect.Response[api.GetBalancesResponse], error) {
	slog.Info("GetBalances request received", "group_id", req.Msg.GroupID)

	if err := api.Validate(req.Msg); err != nil {
		return nil, toConnectError("GetBalances", err)
	}
	if _, _, err := s.member(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError("GetBalances", err)
	}
	balances, err := s.recorder.Balances(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("GetBalances", err)
	}
	return connect.NewResponse(&api.GetBalancesResponse{Balances: toAPIGroupBalances(balances)}), nil
}

// ReconcileGroup replays the group's history and reports drifted balances.
func (s *GroupService) ReconcileGroup(
	ctx context.Context,
	req *connect.Request[api.ReconcileGroupRequest],
) (*connect.Response[api.ReconcileGroupResponse], error) {
	slog.Info("ReconcileGroup request received", "group_id", req.Msg.GroupID)

	if err := api.Validate(req.Msg); err != nil {
		return nil, toConnectError("ReconcileGroup", err)
	}
	if _, _, err := s.admin(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError("ReconcileGroup", err)
	}
	drift, err := s.recorder.Reconcile(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("ReconcileGroup", err)
	}
	return connect.NewResponse(&api.ReconcileGroupResponse{Drift: toAPIDrift(drift)}), nil
}
