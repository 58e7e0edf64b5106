package dialogue

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/voxdesk/voxdesk/internal/observability"
	"github.com/voxdesk/voxdesk/internal/session"
)

// Engine binds the dialogue machine to a session store and serializes
// utterance processing per session. Utterances for different sessions run
// concurrently; utterances for one session run one at a time, in arrival
// order at the lock.
type Engine struct {
	machine *Machine
	store   session.Store
	log     observability.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine builds an engine around the given machine and store.
func NewEngine(machine *Machine, store session.Store, logger observability.Logger) *Engine {
	if store == nil {
		store = session.NewMemoryStore()
	}
	if logger == nil {
		logger = observability.Log()
	}
	return &Engine{
		machine: machine,
		store:   store,
		log:     logger,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (e *Engine) sessionLock(id string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[id] = lock
	}
	return lock
}

// StartSession mints a new session and returns its id plus the greeting.
func (e *Engine) StartSession(ctx context.Context) (string, string, error) {
	id := uuid.NewString()
	if _, err := e.store.Get(ctx, id); err != nil {
		return "", "", fmt.Errorf("start session: %w", err)
	}
	e.log.Info("session started", observability.F("session", id))
	return id, e.machine.Greeting(), nil
}

// SetUserName records the caller's name on the session.
func (e *Engine) SetUserName(ctx context.Context, id, name string) error {
	lock := e.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	sess, err := e.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load session %s: %w", id, err)
	}
	sess.UserName = name
	if err := e.store.Put(ctx, sess); err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}
	return nil
}

// ProcessUtterance runs one utterance through the machine and persists the
// resulting session state.
func (e *Engine) ProcessUtterance(ctx context.Context, id, utterance string) (string, error) {
	lock := e.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	sess, err := e.store.Get(ctx, id)
	if err != nil {
		return "", fmt.Errorf("load session %s: %w", id, err)
	}
	reply := e.machine.Process(ctx, sess, utterance)
	if err := e.store.Put(ctx, sess); err != nil {
		return "", fmt.Errorf("save session %s: %w", id, err)
	}
	return reply, nil
}

// Ended reports whether the session has reached its terminal state.
func (e *Engine) Ended(ctx context.Context, id string) (bool, error) {
	sess, err := e.store.Get(ctx, id)
	if err != nil {
		return false, fmt.Errorf("load session %s: %w", id, err)
	}
	return sess.Ended(), nil
}

// EndSession drops the session and its lock.
func (e *Engine) EndSession(ctx context.Context, id string) error {
	lock := e.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	if err := e.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("end session %s: %w", id, err)
	}
	e.mu.Lock()
	delete(e.locks, id)
	e.mu.Unlock()
	e.log.Info("session ended", observability.F("session", id))
	return nil
}

// ActiveSessions reports the number of live sessions in the store.
func (e *Engine) ActiveSessions(ctx context.Context) (int, error) {
	return e.store.Count(ctx)
}
