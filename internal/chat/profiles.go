package chat

import (
	"context"
	"sync"

	"github.com/nordgaard/driftroom/pkg/domain"
	"github.com/nordgaard/driftroom/pkg/graph"
)

// fetchOwnProfile performs the once-per-session point-in-time read of the
// current user's profile. With no identity it returns the anonymous
// defaults without a remote call. existed reports whether a profile record
// was present at all.
func (s *Session) fetchOwnProfile(ctx context.Context) (profile domain.Profile, existed bool, err error) {
	id := s.Identity()
	if id == nil {
		return domain.Profile{DisplayName: domain.AnonymousName, Role: domain.RoleUser}, true, nil
	}
	rec, err := s.store.ReadOnce(ctx, "profiles/"+id.Pub)
	if err != nil {
		return domain.Profile{}, false, err
	}
	return domain.ProfileFromRecord(id.Pub, rec), rec != nil, nil
}

// nameCache resolves sender public keys to displaynames with point-in-time
// profile reads, memoized for the page session. It is not invalidated when
// a profile changes elsewhere.
type nameCache struct {
	store graph.Store
	mu    sync.Mutex
	names map[string]string
}

func newNameCache(store graph.Store) *nameCache {
	return &nameCache{store: store, names: make(map[string]string)}
}

func (c *nameCache) resolve(ctx context.Context, pub string) string {
	if pub == "" {
		return domain.AnonymousName
	}
	c.mu.Lock()
	if name, ok := c.names[pub]; ok {
		c.mu.Unlock()
		return name
	}
	c.mu.Unlock()

	rec, err := c.store.ReadOnce(ctx, "profiles/"+pub)
	if err != nil {
		return domain.FallbackDisplayName(pub)
	}
	name := domain.ProfileFromRecord(pub, rec).DisplayName

	c.mu.Lock()
	c.names[pub] = name
	c.mu.Unlock()
	return name
}
