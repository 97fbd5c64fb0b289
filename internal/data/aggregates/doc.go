// Package aggregates persists the Contract aggregate.
//
// The contract store composes the table repos in internal/data/repos/sales and
// owns the transaction around each save, load and delete, so a contract is
// always written and read together with its deliveries, line items, delivery
// assignments and products.
package aggregates
