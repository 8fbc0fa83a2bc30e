package api

const (
	GroupServiceName      = "groupledger.v1.GroupService"
	ExpenseServiceName    = "groupledger.v1.ExpenseService"
	SettlementServiceName = "groupledger.v1.SettlementService"
)

// Group service procedures.
const (
	GroupServiceCreateGroupProcedure    = "/" + GroupServiceName + "/CreateGroup"
	GroupServiceGetGroupProcedure       = "/" + GroupServiceName + "/GetGroup"
	GroupServiceListGroupsProcedure     = "/" + GroupServiceName + "/ListGroups"
	GroupServiceUpdateGroupProcedure    = "/" + GroupServiceName + "/UpdateGroup"
	GroupServiceDeleteGroupProcedure    = "/" + GroupServiceName + "/DeleteGroup"
	GroupServiceAddMemberProcedure      = "/" + GroupServiceName + "/AddMember"
	GroupServiceRemoveMemberProcedure   = "/" + GroupServiceName + "/RemoveMember"
	GroupServiceGetBalancesProcedure    = "/" + GroupServiceName + "/GetBalances"
	GroupServiceReconcileGroupProcedure = "/" + GroupServiceName + "/ReconcileGroup"
)

// Expense service procedures.
const (
	ExpenseServiceCreateExpenseProcedure           = "/" + ExpenseServiceName + "/CreateExpense"
	ExpenseServiceGetExpenseProcedure              = "/" + ExpenseServiceName + "/GetExpense"
	ExpenseServiceListExpensesProcedure            = "/" + ExpenseServiceName + "/ListExpenses"
	ExpenseServiceUpdateExpenseProcedure           = "/" + ExpenseServiceName + "/UpdateExpense"
	ExpenseServiceDeleteExpenseProcedure           = "/" + ExpenseServiceName + "/DeleteExpense"
	ExpenseServiceListExpenseTransactionsProcedure = "/" + ExpenseServiceName + "/ListExpenseTransactions"
)

// Settlement service procedures.
const (
	SettlementServiceRecordPaymentProcedure           = "/" + SettlementServiceName + "/RecordPayment"
	SettlementServiceGetSuggestedSettlementsProcedure = "/" + SettlementServiceName + "/GetSuggestedSettlements"
	SettlementServiceGetSettlementHistoryProcedure    = "/" + SettlementServiceName + "/GetSettlementHistory"
)
