package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/contracts-backend/internal/domain/contracts"
)

var ContractAggregatePolicy = Policy{
	Name:             "Sales.ContractAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyWholeAggregate,
	Notes:            "Persists a contract with its deliveries, line items and join entries in one transaction; loads return rehydrated roots.",
}

// ContractAggregate stores whole contracts.
//
// Failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeInvariantViolation,
// CodePreconditionFailed, CodeRetryable, CodeInternal.
type ContractAggregate interface {
	Aggregate

	// Save writes the contract and all owned rows, removing rows no longer in
	// the aggregate. Saves of a previously loaded contract fail with
	// CodeConflict when another writer committed first. On success the
	// contract's version is advanced.
	Save(ctx context.Context, c *contracts.Contract) (SaveContractResult, error)

	// LoadByID and LoadByName return a rehydrated contract or CodeNotFound.
	LoadByID(ctx context.Context, id uuid.UUID) (*contracts.Contract, error)
	LoadByName(ctx context.Context, name string) (*contracts.Contract, error)

	// Delete removes the contract and every row it owns. It fails with
	// CodeConflict when the stored version is not expectedVersion.
	Delete(ctx context.Context, id uuid.UUID, expectedVersion int) (DeleteContractResult, error)
}

type SaveContractResult struct {
	ContractID   uuid.UUID
	Version      int
	Created      bool
	RowsUpserted int
	RowsRemoved  int
	SavedAt      time.Time
}

type DeleteContractResult struct {
	ContractID  uuid.UUID
	RowsRemoved int
}
