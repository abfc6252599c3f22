package inspect

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/Esscrypt/peanutbutterandjam-sub002/hostcall"
	"github.com/Esscrypt/peanutbutterandjam-sub002/invoke"
	"github.com/Esscrypt/peanutbutterandjam-sub002/pvm"
)

// ErrSessionNotFound is returned when a session ID has no matching session.
var ErrSessionNotFound = errors.New("inspect: session not found")

// Session is one running PVM invocation: the machine plus an ID and a
// creation time.
type Session struct {
	ID        string
	Machine   *pvm.Machine[struct{}]
	CreatedAt time.Time
}

// SessionCreateRequest is the program and gas budget a new session loads,
// matching Y's (programBlob, argument) pair plus an explicit gas limit.
type SessionCreateRequest struct {
	ProgramBlob []byte `json:"programBlob"`
	Argument    []byte `json:"argument"`
	GasLimit    uint64 `json:"gasLimit"`
}

// inertMutator answers every host call with WHAT, mirroring the debugger's
// bare-session mutator: an inspect session has no Refine/Accumulate
// context to mutate, just a program under observation.
func inertMutator(_ uint64, core *pvm.Core, ctx struct{}) (pvm.MutatorOutcome, struct{}) {
	core.Regs.Set(hostcall.ReturnCodeReg, hostcall.What)
	return pvm.ContinueRunning(), ctx
}

// SessionManager tracks every live session and broadcasts their state
// changes.
type SessionManager struct {
	sessions    map[string]*Session
	broadcaster *Broadcaster
	mu          sync.RWMutex
}

// NewSessionManager creates an empty manager bound to broadcaster.
func NewSessionManager(broadcaster *Broadcaster) *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session), broadcaster: broadcaster}
}

// CreateSession runs Y over req's program blob and registers the resulting
// machine under a fresh session ID.
func (sm *SessionManager) CreateSession(req SessionCreateRequest) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	y, err := invoke.Y(req.ProgramBlob, req.Argument)
	if err != nil {
		return nil, err
	}

	gas := req.GasLimit
	if gas == 0 {
		gas = 1_000_000
	}

	core := pvm.NewCore(y.Program, y.Registers, y.RAM, gas, pvm.PerInstructionGasModel{}, pvm.DefaultRegistry())
	core.HeapBreak, core.HeapMax = y.HeapBreak, y.HeapMax

	session := &Session{
		ID:        id,
		Machine:   pvm.NewMachine[struct{}](core, inertMutator, struct{}{}),
		CreatedAt: time.Now(),
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sessions[id] = session

	if sm.broadcaster != nil {
		sm.broadcaster.BroadcastExecutionEvent(id, "created", nil)
	}

	return session, nil
}

// GetSession retrieves a session by ID.
func (sm *SessionManager) GetSession(id string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// DestroySession removes a session.
func (sm *SessionManager) DestroySession(id string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, ok := sm.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(sm.sessions, id)
	return nil
}

// ListSessions returns every live session ID.
func (sm *SessionManager) ListSessions() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	ids := make([]string, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count reports the number of live sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

func generateSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
