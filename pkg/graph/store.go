package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Op is the unit of replication and the relay wire format: a merge
// (Fields non-nil) or a nullify (Fields nil) of the record at Path,
// stamped with the writer's clock.
type Op struct {
	Path   string `json:"path"`
	Fields Record `json:"fields,omitempty"`
	Stamp  int64  `json:"stamp"` // unix milliseconds
}

// Graph is the in-process Store implementation. It keeps every record in
// memory, optionally persists them to PebbleDB, and optionally exchanges
// ops with relay peers over WebSocket.
type Graph struct {
	mu      sync.Mutex
	records map[string]Record
	stamps  map[string]int64
	subs    map[string]map[*Subscription]struct{}
	closed  bool

	log    zerolog.Logger
	db     *opLog
	relays []*relayConn
	now    func() time.Time
}

// Option configures a Graph.
type Option func(*Graph)

// WithDataDir enables PebbleDB persistence under dir. Persisted records
// are replayed into memory at open.
func WithDataDir(dir string) Option {
	return func(g *Graph) {
		l, err := openOpLog(dir)
		if err != nil {
			g.log.Warn().Err(err).Msg("open data dir failed; running in memory only")
			return
		}
		g.db = l
	}
}

// WithRelays connects the graph to relay peers. Local ops are forwarded to
// every peer and remote ops are merged as they arrive.
func WithRelays(urls ...string) Option {
	return func(g *Graph) {
		for _, u := range urls {
			if u == "" {
				continue
			}
			g.relays = append(g.relays, newRelayConn(g, u))
		}
	}
}

// WithLogger sets the logger. The default discards everything, which is
// what the TUI wants.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Graph) { g.log = l }
}

// withClock overrides the stamp source in tests.
func withClock(now func() time.Time) Option {
	return func(g *Graph) { g.now = now }
}

// New opens a Graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		records: make(map[string]Record),
		stamps:  make(map[string]int64),
		subs:    make(map[string]map[*Subscription]struct{}),
		log:     zerolog.Nop(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	if g.db != nil {
		n := 0
		g.db.replay(func(path string, rec Record, stamp int64) {
			g.records[path] = rec
			g.stamps[path] = stamp
			n++
		})
		if n > 0 {
			g.log.Info().Int("records", n).Msg("replayed persisted records")
		}
	}
	for _, rc := range g.relays {
		rc.start()
	}
	return g
}

// Close detaches every subscription, disconnects relays and closes the
// persistent store.
func (g *Graph) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	var subs []*Subscription
	for _, set := range g.subs {
		for s := range set {
			subs = append(subs, s)
		}
	}
	g.mu.Unlock()

	for _, s := range subs {
		s.Detach()
	}
	for _, rc := range g.relays {
		rc.close()
	}
	if g.db != nil {
		return g.db.close()
	}
	return nil
}

// Stats is a point-in-time census of the store.
type Stats struct {
	Records       int `json:"records"`
	Subscriptions int `json:"subscriptions"`
}

// Stats reports record and live-subscription counts.
func (g *Graph) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := Stats{Records: len(g.records)}
	for _, set := range g.subs {
		st.Subscriptions += len(set)
	}
	return st
}

// SubscriberCount reports the live listeners attached to one collection.
func (g *Graph) SubscriberCount(collection string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.subs[collection])
}

// ReadOnce returns the current record at path, or nil if absent. This is a
// point-in-time read; no subscription is established.
func (g *Graph) ReadOnce(ctx context.Context, path string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil, fmt.Errorf("graph.ReadOnce: store closed")
	}
	return g.records[path].clone(), nil
}

// Children returns a snapshot of the direct children of a collection.
func (g *Graph) Children(ctx context.Context, collection string) (map[string]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil, fmt.Errorf("graph.Children: store closed")
	}
	out := make(map[string]Record)
	for path, rec := range g.records {
		if key := childKey(collection, path); key != "" {
			out[key] = rec.clone()
		}
	}
	return out, nil
}

// Subscribe attaches a live listener to a collection. Existing children
// are replayed into the feed before (or interleaved with) live changes;
// consumers must deduplicate by key.
func (g *Graph) Subscribe(collection string) *Subscription {
	sub := newSubscription(func(s *Subscription) {
		g.mu.Lock()
		defer g.mu.Unlock()
		if set, ok := g.subs[collection]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(g.subs, collection)
			}
		}
	})

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		sub.Detach()
		return sub
	}
	if g.subs[collection] == nil {
		g.subs[collection] = make(map[*Subscription]struct{})
	}
	g.subs[collection][sub] = struct{}{}
	// Snapshot replay. Map iteration order makes this deliberately
	// unordered, matching the delivery contract.
	for path, rec := range g.records {
		if key := childKey(collection, path); key != "" {
			sub.push(Event{Key: key, Record: rec.clone()})
		}
	}
	g.mu.Unlock()
	return sub
}

// Write merges fields into the record at path, creating it if absent.
func (g *Graph) Write(ctx context.Context, path string, fields Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(fields) == 0 {
		return fmt.Errorf("graph.Write: empty record for %s", path)
	}
	return g.apply(Op{Path: path, Fields: fields, Stamp: g.now().UnixMilli()}, false)
}

// Delete nullifies the record at path. Subscribers observe a nil-record
// event for it.
func (g *Graph) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return g.apply(Op{Path: path, Stamp: g.now().UnixMilli()}, false)
}

// Append writes fields under a new store-assigned key and returns the key.
func (g *Graph) Append(ctx context.Context, collection string, fields Record) (string, error) {
	id := uuid.NewString()
	if err := g.Write(ctx, collection+"/"+id, fields); err != nil {
		return "", err
	}
	return id, nil
}

// ApplyOp merges an op received from a peer. Used by the relay server,
// which shares the same merge and persistence machinery but fans ops out
// itself.
func (g *Graph) ApplyOp(o Op) error {
	return g.apply(o, true)
}

// Ops snapshots the current state as one op per record, for replay to a
// newly connected peer.
func (g *Graph) Ops() []Op {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Op, 0, len(g.records))
	for path, rec := range g.records {
		out = append(out, Op{Path: path, Fields: rec.clone(), Stamp: g.stamps[path]})
	}
	return out
}

// apply merges an op into the store, persists it, notifies subscribers and
// forwards local ops to relay peers. Remote ops older than the local state
// of the same path are discarded (last-write-wins at record granularity).
func (g *Graph) apply(o Op, fromRelay bool) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return fmt.Errorf("graph.apply: store closed")
	}
	if fromRelay && o.Stamp < g.stamps[o.Path] {
		g.mu.Unlock()
		return nil
	}

	var merged Record
	if o.Fields == nil {
		delete(g.records, o.Path)
	} else {
		rec := g.records[o.Path]
		if rec == nil {
			rec = make(Record, len(o.Fields))
		}
		for k, v := range o.Fields {
			rec[k] = v
		}
		g.records[o.Path] = rec
		merged = rec.clone()
	}
	if o.Stamp > g.stamps[o.Path] {
		g.stamps[o.Path] = o.Stamp
	}

	if g.db != nil {
		if err := g.db.put(o.Path, merged, g.stamps[o.Path]); err != nil {
			g.log.Warn().Err(err).Str("path", o.Path).Msg("persist failed")
		}
	}

	collection, key := parentOf(o.Path)
	var targets []*Subscription
	for s := range g.subs[collection] {
		targets = append(targets, s)
	}
	relays := g.relays
	g.mu.Unlock()

	for _, s := range targets {
		s.push(Event{Key: key, Record: merged.clone()})
	}
	if !fromRelay {
		for _, rc := range relays {
			rc.send(o)
		}
	}
	return nil
}
