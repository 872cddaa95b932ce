package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Stores groups the repositories the services depend on.
type Stores struct {
	Issues   IssueRepository
	Officers OfficerRepository
	Citizens CitizenRepository
	InMemory bool
}

// NewStores returns pgx repositories over pool, or in-memory ones when pool
// is nil.
func NewStores(pool *pgxpool.Pool) Stores {
	if pool == nil {
		return Stores{
			Issues:   NewMemoryIssueRepository(),
			Officers: NewMemoryOfficerRepository(),
			Citizens: NewMemoryCitizenRepository(),
			InMemory: true,
		}
	}
	return Stores{
		Issues:   NewIssueRepository(pool),
		Officers: NewOfficerRepository(pool),
		Citizens: NewCitizenRepository(pool),
	}
}
