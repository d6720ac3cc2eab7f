package commands

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/avi3tal/agentcanvas/internal/store"
)

// Manager keeps the linear undo/redo history. Executing a new command
// clears the redo stack; history never branches.
type Manager struct {
	mu    sync.Mutex
	store *store.Store
	log   *zap.Logger

	undo []Command
	redo []Command
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(log *zap.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager builds a history bound to one store.
func NewManager(s *store.Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store: s,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type executeConfig struct {
	dirty bool
}

// ExecuteOption tunes one Execute call.
type ExecuteOption func(*executeConfig)

// WithoutDirty suppresses the unsaved-changes mark for this command,
// used when replaying programmatic mutations that do not represent user
// edits.
func WithoutDirty() ExecuteOption {
	return func(cfg *executeConfig) {
		cfg.dirty = false
	}
}

// Execute applies the command, pushes it onto the undo stack and clears
// the redo stack. A command whose Apply fails is not recorded.
func (m *Manager) Execute(cmd Command, opts ...ExecuteOption) error {
	cfg := executeConfig{dirty: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := cmd.Apply(m.store); err != nil {
		return errors.Wrapf(err, "applying %s", cmd.Name())
	}
	m.undo = append(m.undo, cmd)
	m.redo = nil
	if cfg.dirty {
		m.store.MarkUnsaved()
	}
	m.log.Debug("command executed",
		zap.String("command", cmd.Name()),
		zap.Int("undo_depth", len(m.undo)),
	)
	return nil
}

// Undo reverts the most recent command. An empty stack is a logged
// no-op. A failed revert keeps the command on the stack so the history
// stays consistent with the store.
func (m *Manager) Undo() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.undo) == 0 {
		m.log.Debug("undo requested on empty stack")
		return nil
	}
	cmd := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	if err := cmd.Revert(m.store); err != nil {
		m.undo = append(m.undo, cmd)
		return errors.Wrapf(err, "reverting %s", cmd.Name())
	}
	m.redo = append(m.redo, cmd)
	m.store.MarkUnsaved()
	m.log.Debug("command undone", zap.String("command", cmd.Name()))
	return nil
}

// Redo re-applies the most recently undone command. An empty stack is a
// logged no-op.
func (m *Manager) Redo() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.redo) == 0 {
		m.log.Debug("redo requested on empty stack")
		return nil
	}
	cmd := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	if err := cmd.Apply(m.store); err != nil {
		m.redo = append(m.redo, cmd)
		return errors.Wrapf(err, "reapplying %s", cmd.Name())
	}
	m.undo = append(m.undo, cmd)
	m.store.MarkUnsaved()
	m.log.Debug("command redone", zap.String("command", cmd.Name()))
	return nil
}

// CanUndo reports whether the undo stack is non-empty.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo) > 0
}

// CanRedo reports whether the redo stack is non-empty.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo) > 0
}
