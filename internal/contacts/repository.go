package contacts

import "context"

// RepositoryPort abstracts contact persistence.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Contact, error)
	// List returns one page of contacts plus the unfiltered total.
	List(ctx context.Context, limit, offset int) ([]Contact, int, error)
	// ListAll returns every contact, for full-breadth exports.
	ListAll(ctx context.Context) ([]Contact, error)
	// ListCandidates returns contacts the user could plausibly see under a
	// narrow breadth: owned, assigned, or carrying a shared scope. Records a
	// stranger keeps private never leave the database.
	ListCandidates(ctx context.Context, userID int64) ([]Contact, error)
	Insert(ctx context.Context, c Contact) (Contact, error)
	Update(ctx context.Context, c Contact) (Contact, error)
	Delete(ctx context.Context, id int64) error
}
