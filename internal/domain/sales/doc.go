// Package sales holds the GORM row models for the contract tables. Rows are
// plain data; the domain rules live in internal/domain/contracts.
package sales
