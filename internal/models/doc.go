// Package models defines the core domain models for splitledger.
//
// # Models
//
//   - Account: a member of the app holding a signed balance
//   - Event: a shared bill awaiting admin approval
//   - Transaction: an immutable record of value moving between accounts
//   - LedgerEntry: one applied balance delta, the journal behind every balance
//
// # Design Principles
//
// 1. **Integer money**: every amount is an Amount, a count of minor units (cents).
// Decimal strings only exist at the API edge.
// 2. **Avoid circular references**: use ID strings instead of pointers for relationships.
// 3. **Explicit status**: events and top-ups share the WAITING → APPROVE | DECLINE lifecycle.
package models
