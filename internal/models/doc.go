// Package models defines the core domain models for the group ledger.
//
// # Models
//
//   - Group, Member: a set of people sharing expenses
//   - Expense, Participant: a recorded expense and its optional explicit shares
//   - ExpenseBalance, GroupBalance: derived running balances
//   - SettlementTransaction: proposed (computed) or actual (confirmed) transfers
//
// # Conventions
//
//  1. Amounts are money.Money, never float64
//  2. Relationships use ID strings rather than pointers
//  3. Timestamps are Unix seconds
//  4. A positive balance means the member is owed money; negative means they owe
package models
