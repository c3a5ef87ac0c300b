package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mrsimpson/responsible-vibe-mcp-sub000/internal/logging"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/internal/render"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/domain"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/plugin"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/ports"
)

// DefaultStartTrigger begins a new conversation when no state exists yet.
const DefaultStartTrigger = "start"

// lockEntry holds the mutex and its reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager owns conversation lifecycle and locking.
type Manager struct {
	source   ports.WorkflowSource
	store    ports.StateStore
	plugins  *plugin.Registry
	renderer *render.Renderer

	plans        ports.PlanStore
	planTemplate string

	projectPath  string
	startTrigger string

	locker  ports.DistributedLocker
	lockTTL time.Duration

	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*lockEntry
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking for multi-replica deployments.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLogger configures the Manager's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithPlanStore enables plan-document creation on session start.
func WithPlanStore(plans ports.PlanStore) Option {
	return func(m *Manager) {
		m.plans = plans
	}
}

// WithPlanTemplate overrides the built-in plan-document template.
func WithPlanTemplate(template string) Option {
	return func(m *Manager) {
		m.planTemplate = template
	}
}

// WithProjectPath records the project directory handed to plugin hooks.
func WithProjectPath(path string) Option {
	return func(m *Manager) {
		m.projectPath = path
	}
}

// WithStartTrigger overrides the trigger that creates new conversations.
func WithStartTrigger(trigger string) Option {
	return func(m *Manager) {
		m.startTrigger = trigger
	}
}

// WithLockTTL overrides the distributed-lock TTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// NewManager creates a Manager over the given definition source, state store
// and plugin registry.
func NewManager(source ports.WorkflowSource, store ports.StateStore, registry *plugin.Registry, opts ...Option) *Manager {
	m := &Manager{
		source:       source,
		store:        store,
		plugins:      registry,
		planTemplate: defaultPlanTemplate,
		startTrigger: DefaultStartTrigger,
		lockTTL:      30 * time.Second,
		logger:       logging.NewNop(),
		locks:        make(map[string]*lockEntry),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.renderer = render.New(registry, render.WithLogger(m.logger))
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must Lock entry.mu and then call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[id]
	if !ok {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and garbage-collects idle entries.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[id]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// withLock executes fn while holding this conversation's lock. When a
// distributed locker is configured it is acquired inside the local lock, so
// in-process callers never contend on the network path.
func (m *Manager) withLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"conversation_id", id, "err", err)
			}
		}()
	}

	return fn(ctx)
}

// Get returns the current state of a conversation.
func (m *Manager) Get(ctx context.Context, conversationID string) (domain.ConversationState, error) {
	var state domain.ConversationState
	err := m.withLock(ctx, conversationID, func(ctx context.Context) error {
		loaded, found, err := m.store.Get(ctx, conversationID)
		if err != nil {
			return fmt.Errorf("failed to read conversation %q: %w", conversationID, err)
		}
		if !found {
			return fmt.Errorf("%w: %s", domain.ErrConversationNotFound, conversationID)
		}
		state = loaded
		return nil
	})
	return state, err
}

// Workflows lists the available workflow definitions.
func (m *Manager) Workflows() ([]string, error) {
	return m.source.ListWorkflows()
}

// Workflow loads and validates a single definition.
func (m *Manager) Workflow(name string) (domain.WorkflowDefinition, error) {
	def, err := m.source.LoadWorkflow(name)
	if err != nil {
		return domain.WorkflowDefinition{}, err
	}
	if err := def.Validate(); err != nil {
		return domain.WorkflowDefinition{}, err
	}
	return def, nil
}
