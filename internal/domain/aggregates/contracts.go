package aggregates

// WriteTxOwnership defines who owns write transaction boundaries.
type WriteTxOwnership string

const (
	// WriteTxOwnedByAggregate means aggregate write methods start/manage atomic DB transactions internally.
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
)

// ReadPolicy defines how aggregate stores expose reads.
type ReadPolicy string

const (
	// ReadPolicyWholeAggregate loads every owned row and returns a rehydrated root.
	ReadPolicyWholeAggregate ReadPolicy = "whole_aggregate_reads"
	// ReadPolicyTableRepoQueries keeps broad listing/lookup queries on table repos.
	ReadPolicyTableRepoQueries ReadPolicy = "table_repo_queries"
)

// Policy describes aggregate-level persistence expectations.
type Policy struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	ReadPolicy       ReadPolicy
	Notes            string
}

// Aggregate is the common marker for all aggregate stores.
// Implementations should return a stable policy description.
type Aggregate interface {
	Policy() Policy
}

// RequiresAggregateOwnedTx returns true when write transaction ownership is aggregate-owned.
func (p Policy) RequiresAggregateOwnedTx() bool {
	return p.WriteTxOwnership == WriteTxOwnedByAggregate
}
