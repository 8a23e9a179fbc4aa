// Package models defines the persisted domain records for debtwise.
//
// # Records
//
//   - Debt: a balance owed by a user, with its APR and currency
//   - Payment: a ledger row written when a lump sum is applied to a debt
//   - User: a registered account that owns debts
//
// Simulation inputs and outputs live in the calculator package; models only
// carries what the storage layer reads and writes.
//
// # Conventions
//
//  1. IDs are UUID strings generated by the store when empty
//  2. Timestamps are Unix seconds
//  3. Relationships use ID strings instead of pointers
//  4. Amounts are float64 in the debt's currency
package models
