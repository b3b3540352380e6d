// Package models defines the core domain models for Susu.
//
// # Models
//
//   - User: Registered account; every member, creator and payer is a user ID
//   - Group: A rotating savings group with its membership, collection order,
//     pending join requests and embedded payment records
//   - Payment: One contribution from a payer to the round's collector
//
// # Design Principles
//
// 1. **Group is the unit of update**: members, requests and payments are read and
// written together so a group never shows a half-applied change
// 2. **Avoid circular references**: Use ID strings instead of pointers for relationships
// 3. **Money is decimal**: Amounts use shopspring/decimal, never float64
package models
