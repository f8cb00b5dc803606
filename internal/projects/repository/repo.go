package repository

import (
	"context"

	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/domain"
)

// RemoteStore reads and replaces the single remote document holding the whole
// project collection. There is no per-item addressing: every write replaces
// everything and the last writer wins.
type RemoteStore interface {
	FetchAll(ctx context.Context) (domain.Snapshot, error)
	ReplaceAll(ctx context.Context, projects domain.Snapshot) error
	// Configured is false while connection parameters are still placeholders.
	Configured() bool
	Name() string
}

// LocalCache is the durable local copy used when no remote store is configured.
type LocalCache interface {
	Read(ctx context.Context) (domain.Snapshot, error)
	Persist(ctx context.Context, projects domain.Snapshot) error
	Name() string
}

const (
	ModeRemote = "remote"
	ModeLocal  = "local"
)

// Backend is the persistence target the project service talks to. Exactly one
// is chosen at start-up.
type Backend interface {
	Fetch(ctx context.Context) (domain.Snapshot, error)
	Persist(ctx context.Context, projects domain.Snapshot) error
	Mode() string
	Name() string
}

type RemoteBackend struct {
	Store RemoteStore
}

func (b RemoteBackend) Fetch(ctx context.Context) (domain.Snapshot, error) {
	return b.Store.FetchAll(ctx)
}

func (b RemoteBackend) Persist(ctx context.Context, projects domain.Snapshot) error {
	return b.Store.ReplaceAll(ctx, projects)
}

func (b RemoteBackend) Mode() string { return ModeRemote }
func (b RemoteBackend) Name() string { return b.Store.Name() }

type LocalBackend struct {
	Cache LocalCache
}

func (b LocalBackend) Fetch(ctx context.Context) (domain.Snapshot, error) {
	return b.Cache.Read(ctx)
}

func (b LocalBackend) Persist(ctx context.Context, projects domain.Snapshot) error {
	return b.Cache.Persist(ctx, projects)
}

func (b LocalBackend) Mode() string { return ModeLocal }
func (b LocalBackend) Name() string { return b.Cache.Name() }

// SelectBackend picks the remote store when it is configured and the local
// cache otherwise. A nil store always selects the cache.
func SelectBackend(store RemoteStore, cache LocalCache) Backend {
	if store != nil && store.Configured() {
		return RemoteBackend{Store: store}
	}
	return LocalBackend{Cache: cache}
}
