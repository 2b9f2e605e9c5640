package dmtree

import (
	"context"
	"fmt"
	"sync"

	"github.com/kardianos/dmtree/dmapi"
	"github.com/kardianos/dmtree/dmdef"
	"github.com/kardianos/dmtree/dmhost"
	"github.com/rs/zerolog"
)

// changeBuffer is the per-subscriber queue length. Events beyond it are dropped.
const changeBuffer = 16

// Change is a re-render request. A nil Node means the whole tree.
type Change struct {
	Node Node
}

// Config configures a Provider.
type Config struct {
	// State persists the connection registry. Required.
	State dmhost.State

	// Secrets holds access keys. Required.
	Secrets SecretStore

	// BaseURL is the API root passed to default sessions.
	BaseURL string

	// HTTP3 makes default sessions use a QUIC transport.
	HTTP3 bool

	// UserAgent is sent by default sessions.
	UserAgent string

	// NewSession overrides how an API session is built for a connection.
	NewSession func(conn dmdef.Connection) (Session, error)

	Logger zerolog.Logger
}

// Provider is the tree data source a host UI talks to.
type Provider struct {
	reg        *Registry
	newSession func(conn dmdef.Connection) (Session, error)
	log        zerolog.Logger

	mu       sync.Mutex
	sessions map[string]Session

	subMu   sync.Mutex
	subs    map[int]chan Change
	nextSub int
}

var (
	defaultMu       sync.Mutex
	defaultProvider *Provider
)

// Default returns the process-wide provider. The first call with a non-nil
// cfg creates it; later calls return the existing instance whatever cfg
// holds. It returns nil if the provider was never created.
func Default(cfg *Config) (*Provider, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultProvider != nil || cfg == nil {
		return defaultProvider, nil
	}
	p, err := New(*cfg)
	if err != nil {
		return nil, err
	}
	defaultProvider = p
	return p, nil
}

// New returns an independent provider.
func New(cfg Config) (*Provider, error) {
	if cfg.State == nil {
		return nil, fmt.Errorf("dmtree: state store is required")
	}
	if cfg.Secrets == nil {
		return nil, fmt.Errorf("dmtree: secret store is required")
	}

	p := &Provider{
		reg:        NewRegistry(cfg.State, cfg.Secrets),
		newSession: cfg.NewSession,
		log:        cfg.Logger.With().Str("component", "tree").Logger(),
		sessions:   make(map[string]Session),
		subs:       make(map[int]chan Change),
	}
	if p.newSession == nil {
		apiLog := cfg.Logger.With().Str("component", "api").Logger()
		p.newSession = func(conn dmdef.Connection) (Session, error) {
			return dmapi.New(dmapi.Config{
				BaseURL:   cfg.BaseURL,
				AccessKey: conn.AccessKey,
				HTTP3:     cfg.HTTP3,
				UserAgent: cfg.UserAgent,
				Logger:    apiLog.With().Str("connection", conn.ID).Logger(),
			})
		}
	}
	return p, nil
}

// Registry returns the connection registry the provider reads.
func (p *Provider) Registry() *Registry {
	return p.reg
}

// GetTreeItem returns how node is rendered.
func (p *Provider) GetTreeItem(node Node) TreeItem {
	return node.TreeItem()
}

// GetChildren returns the roots when node is nil, otherwise node's children.
func (p *Provider) GetChildren(ctx context.Context, node Node) []Node {
	if node == nil {
		return p.RootNodes(ctx)
	}
	return node.Children(ctx)
}

// RootNodes builds one ConnectionNode per registered connection, in creation
// order. A registry that cannot be read yields a single InfoNode; a
// connection whose access key cannot be resolved is replaced by an InfoNode.
func (p *Provider) RootNodes(ctx context.Context) []Node {
	conns, err := p.reg.List()
	if err != nil {
		p.log.Error().Err(err).Msg("read connection registry")
		return []Node{NewInfoNode(err.Error())}
	}

	out := make([]Node, 0, len(conns))
	for _, id := range sortedIDs(conns) {
		if err := ctx.Err(); err != nil {
			return []Node{NewInfoNode(err.Error())}
		}
		conn := dmdef.Connection{ID: id, Label: conns[id].Label}
		conn.AccessKey, err = p.reg.ResolveSecret(id)
		if err != nil {
			p.log.Warn().Err(err).Str("connection", id).Msg("resolve access key")
			out = append(out, NewInfoNode(err.Error()))
			continue
		}
		sess, err := p.session(conn)
		if err != nil {
			p.log.Warn().Err(err).Str("connection", id).Msg("create session")
			out = append(out, NewInfoNode(err.Error()))
			continue
		}
		out = append(out, NewConnectionNode(conn, sess, p.log))
	}
	return out
}

// session returns the cached session for conn, creating it on first use.
func (p *Provider) session(conn dmdef.Connection) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.sessions[conn.ID]; ok {
		return s, nil
	}
	s, err := p.newSession(conn)
	if err != nil {
		return nil, err
	}
	p.sessions[conn.ID] = s
	return s, nil
}

// evict drops cached sessions for ids, closing those that hold resources.
func (p *Provider) evict(ids ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, id := range ids {
		s, ok := p.sessions[id]
		if !ok {
			continue
		}
		delete(p.sessions, id)
		if c, ok := s.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				p.log.Debug().Err(err).Str("connection", id).Msg("close session")
			}
		}
	}
}

// Refresh notifies subscribers that node, or the whole tree when node is
// nil, must be fetched again.
func (p *Provider) Refresh(node Node) {
	p.subMu.Lock()
	defer p.subMu.Unlock()

	for id, ch := range p.subs {
		select {
		case ch <- Change{Node: node}:
		default:
			p.log.Debug().Int("subscriber", id).Msg("change dropped, subscriber full")
		}
	}
}

// Subscribe returns a channel of change notifications and a function that
// unsubscribes and closes it.
func (p *Provider) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, changeBuffer)

	p.subMu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = ch
	p.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.subMu.Lock()
			delete(p.subs, id)
			p.subMu.Unlock()
			close(ch)
		})
	}
}

// SetConnection registers a connection and refreshes the whole tree.
func (p *Provider) SetConnection(label, accessKey string) (string, error) {
	id, err := p.reg.Set(label, accessKey)
	if err != nil {
		return "", err
	}
	p.log.Info().Str("connection", id).Str("label", label).Msg("connection added")
	p.Refresh(nil)
	return id, nil
}

// DeleteConnection removes a connection, drops its session and refreshes the
// whole tree.
func (p *Provider) DeleteConnection(id string) error {
	if err := p.reg.Delete(id); err != nil {
		return err
	}
	p.evict(id)
	p.log.Info().Str("connection", id).Msg("connection deleted")
	p.Refresh(nil)
	return nil
}

// Reset removes every connection, secret and session.
func (p *Provider) Reset() error {
	ids, err := p.reg.DeleteAll()
	if err != nil {
		return err
	}
	p.evict(ids...)
	p.log.Info().Int("count", len(ids)).Msg("connections reset")
	p.Refresh(nil)
	return nil
}

// ResolveConnection returns the connection for id, access key included.
// An empty id selects the oldest connection.
func (p *Provider) ResolveConnection(id string) (dmdef.Connection, error) {
	if id == "" {
		ids, err := p.reg.IDs()
		if err != nil {
			return dmdef.Connection{}, err
		}
		if len(ids) == 0 {
			return dmdef.Connection{}, dmdef.ErrNoConnections
		}
		id = ids[0]
	}
	return p.reg.Resolve(id)
}

// Close releases every cached session.
func (p *Provider) Close() error {
	p.mu.Lock()
	ids := make([]string, 0, len(p.sessions))
	for id := range p.sessions {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	p.evict(ids...)
	return nil
}
