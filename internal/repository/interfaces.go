package repository

import "context"

// Repositories groups the per-entity repositories bound to one connection
// or one transaction.
type Repositories interface {
	Principals() PrincipalRepository
	Projects() ProjectRepository
	Approvals() ApprovalRepository
	Results() ResultRepository
	ClientRequests() ClientRequestRepository
	Notifications() NotificationRepository
}

// Tx is the set of repositories visible inside a transaction.
type Tx interface {
	Repositories
}

// Store is the persistence boundary of the service. Writes made through the
// Tx passed to fn become visible together when fn returns nil, and not at
// all otherwise.
type Store interface {
	Repositories
	InTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
	Close()
}
