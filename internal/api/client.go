package api

import (
	"context"

	"connectrpc.com/connect"
)

// Client calls every ledger procedure over Connect with the JSON codec.
type Client struct {
	httpClient connect.HTTPClient
	baseURL    string
	opts       []connect.ClientOption
}

// NewClient creates a client for the server at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		opts:       append([]connect.ClientOption{WithJSON()}, opts...),
	}
}

// call performs one unary request.
func call[Req, Res any](ctx context.Context, c *Client, procedure string, req *connect.Request[Req]) (*connect.Response[Res], error) {
	return connect.NewClient[Req, Res](c.httpClient, c.baseURL+procedure, c.opts...).CallUnary(ctx, req)
}

func (c *Client) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	return call[CreateGroupRequest, CreateGroupResponse](ctx, c, GroupServiceCreateGroupProcedure, req)
}

func (c *Client) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	return call[GetGroupRequest, GetGroupResponse](ctx, c, GroupServiceGetGroupProcedure, req)
}

func (c *Client) ListGroups(ctx context.Context, req *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error) {
	return call[ListGroupsRequest, ListGroupsResponse](ctx, c, GroupServiceListGroupsProcedure, req)
}

func (c *Client) UpdateGroup(ctx context.Context, req *connect.Request[UpdateGroupRequest]) (*connect.Response[UpdateGroupResponse], error) {
	return call[UpdateGroupRequest, UpdateGroupResponse](ctx, c, GroupServiceUpdateGroupProcedure, req)
}

func (c *Client) DeleteGroup(ctx context.Context, req *connect.Request[DeleteGroupRequest]) (*connect.Response[DeleteGroupResponse], error) {
	return call[DeleteGroupRequest, DeleteGroupResponse](ctx, c, GroupServiceDeleteGroupProcedure, req)
}

func (c *Client) AddMember(ctx context.Context, req *connect.Request[AddMemberRequest]) (*connect.Response[AddMemberResponse], error) {
	return call[AddMemberRequest, AddMemberResponse](ctx, c, GroupServiceAddMemberProcedure, req)
}

func (c *Client) RemoveMember(ctx context.Context, req *connect.Request[RemoveMemberRequest]) (*connect.Response[RemoveMemberResponse], error) {
	return call[RemoveMemberRequest, RemoveMemberResponse](ctx, c, GroupServiceRemoveMemberProcedure, req)
}

func (c *Client) GetBalances(ctx context.Context, req *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error) {
	return call[GetBalancesRequest, GetBalancesResponse](ctx, c, GroupServiceGetBalancesProcedure, req)
}

func (c *Client) ReconcileGroup(ctx context.Context, req *connect.Request[ReconcileGroupRequest]) (*connect.Response[ReconcileGroupResponse], error) {
	return call[ReconcileGroupRequest, ReconcileGroupResponse](ctx, c, GroupServiceReconcileGroupProcedure, req)
}

func (c *Client) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	return call[CreateExpenseRequest, CreateExpenseResponse](ctx, c, ExpenseServiceCreateExpenseProcedure, req)
}

func (c *Client) GetExpense(ctx context.Context, req *connect.Request[GetExpenseRequest]) (*connect.Response[GetExpenseResponse], error) {
	return call[GetExpenseRequest, GetExpenseResponse](ctx, c, ExpenseServiceGetExpenseProcedure, req)
}

func (c *Client) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	return call[ListExpensesRequest, ListExpensesResponse](ctx, c, ExpenseServiceListExpensesProcedure, req)
}

func (c *Client) UpdateExpense(ctx context.Context, req *connect.Request[UpdateExpenseRequest]) (*connect.Response[UpdateExpenseResponse], error) {
	return call[UpdateExpenseRequest, UpdateExpenseResponse](ctx, c, ExpenseServiceUpdateExpenseProcedure, req)
}

func (c *Client) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	return call[DeleteExpenseRequest, DeleteExpenseResponse](ctx, c, ExpenseServiceDeleteExpenseProcedure, req)
}

func (c *Client) ListExpenseTransactions(ctx context.Context, req *connect.Request[ListExpenseTransactionsRequest]) (*connect.Response[ListExpenseTransactionsResponse], error) {
	return call[ListExpenseTransactionsRequest, ListExpenseTransactionsResponse](ctx, c, ExpenseServiceListExpenseTransactionsProcedure, req)
}

func (c *Client) RecordPayment(ctx context.Context, req *connect.Request[RecordPaymentRequest]) (*connect.Response[RecordPaymentResponse], error) {
	return call[RecordPaymentRequest, RecordPaymentResponse](ctx, c, SettlementServiceRecordPaymentProcedure, req)
}

func (c *Client) GetSuggestedSettlements(ctx context.Context, req *connect.Request[GetSuggestedSettlementsRequest]) (*connect.Response[GetSuggestedSettlementsResponse], error) {
	return call[GetSuggestedSettlementsRequest, GetSuggestedSettlementsResponse](ctx, c, SettlementServiceGetSuggestedSettlementsProcedure, req)
}

func (c *Client) GetSettlementHistory(ctx context.Context, req *connect.Request[GetSettlementHistoryRequest]) (*connect.Response[GetSettlementHistoryResponse], error) {
	return call[GetSettlementHistoryRequest, GetSettlementHistoryResponse](ctx, c, SettlementServiceGetSettlementHistoryProcedure, req)
}
