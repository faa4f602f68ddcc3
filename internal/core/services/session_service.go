package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"tablestakes/internal/core/domain"

	"github.com/google/uuid"
)

// Role is how this client takes part in a session
type Role string

const (
	RoleHost      Role = "host"
	RolePlayer    Role = "player"
	RoleSpectator Role = "spectator"
)

// Identity is what the bootstrap hands to this client
type Identity struct {
	Code     string
	Role     Role
	PlayerID string
	Name     string
}

// maxCodeAttempts bounds retries when a generated code is already in use
const maxCodeAttempts = 5

// SessionConfig holds the knobs a SessionService needs
type SessionConfig struct {
	TTL   time.Duration
	Now   func() time.Time
	NewID func() string
}

// SessionService owns this client's local copy of the session. All reads
// and writes of local state go through it; the store is only touched on
// bootstrap, Pull and Flush.
type SessionService struct {
	store      SnapshotStore
	dispatcher *ActionDispatcher
	ttl        time.Duration
	now        func() time.Time
	newID      func() string
	logger     *slog.Logger

	mu        sync.Mutex
	self      Identity
	state     domain.Session
	watermark time.Time
	dirty     bool

	flushCh chan struct{}
}

// NewSessionService creates a new session service over store
func NewSessionService(store SnapshotStore, cfg SessionConfig, logger *slog.Logger) *SessionService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.TTL <= 0 {
		cfg.TTL = domain.DefaultSnapshotTTL
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SessionService{
		store:      store,
		dispatcher: NewActionDispatcher(cfg.Now),
		ttl:        cfg.TTL,
		now:        cfg.Now,
		newID:      cfg.NewID,
		logger:     logger,
		flushCh:    make(chan struct{}, 1),
	}
}

// CreateSession opens a new session hosted by host and stores it
func (s *SessionService) CreateSession(ctx context.Context, host string, initialMoney int64, bankLoans bool) (domain.Session, error) {
	code, err := s.freeCode(ctx)
	if err != nil {
		return domain.Session{}, err
	}

	next, err := s.dispatcher.Dispatch(domain.Session{}, domain.CreateSession{
		Code:             code,
		Host:             host,
		InitialMoney:     initialMoney,
		BankLoansEnabled: bankLoans,
	})
	if err != nil {
		return domain.Session{}, err
	}

	s.adopt(Identity{Code: code, Role: RoleHost, Name: next.Host}, next, true)
	if err := s.Flush(ctx); err != nil {
		return domain.Session{}, err
	}
	s.logger.Info("session created", "code", code, "host", next.Host)
	return s.Snapshot(), nil
}

// JoinSession seats name at the session identified by code
func (s *SessionService) JoinSession(ctx context.Context, code, name string) (domain.Session, error) {
	current, err := s.fetch(ctx, code)
	if err != nil {
		return domain.Session{}, err
	}

	id := s.newID()
	next, err := s.dispatcher.Dispatch(current, domain.JoinSession{PlayerID: id, Name: name})
	if err != nil {
		return domain.Session{}, err
	}

	player := next.Players[next.FindPlayer(id)]
	s.adopt(Identity{Code: next.Code, Role: RolePlayer, PlayerID: id, Name: player.Name}, next, true)
	if err := s.Flush(ctx); err != nil {
		return domain.Session{}, err
	}
	s.logger.Info("joined session", "code", next.Code, "player", player.Name, "id", id)
	return s.Snapshot(), nil
}

// Spectate follows the session identified by code without a seat
func (s *SessionService) Spectate(ctx context.Context, code string) (domain.Session, error) {
	current, err := s.fetch(ctx, code)
	if err != nil {
		return domain.Session{}, err
	}

	id := s.newID()
	next, err := s.dispatcher.Dispatch(current, domain.AddSpectator{SpectatorID: id})
	if err != nil {
		return domain.Session{}, err
	}

	s.adopt(Identity{Code: next.Code, Role: RoleSpectator, PlayerID: id}, next, true)
	if err := s.Flush(ctx); err != nil {
		return domain.Session{}, err
	}
	s.logger.Info("spectating session", "code", next.Code, "id", id)
	return s.Snapshot(), nil
}

// Resume adopts an already-known identity and snapshot without a store
// round-trip. The snapshot is treated as synced.
func (s *SessionService) Resume(self Identity, snapshot domain.Session) {
	s.adopt(self, snapshot, false)
}

// Dispatch applies a to the local state. Declined actions leave the state
// untouched and return a *domain.DeclinedError. Accepted actions are flushed
// by the SyncAgent.
func (s *SessionService) Dispatch(a domain.Action) (domain.Session, error) {
	s.mu.Lock()
	next, err := s.dispatcher.Dispatch(s.state, a)
	if err != nil {
		s.mu.Unlock()
		return s.Snapshot(), err
	}
	s.state = next
	s.dirty = true
	out := next.Clone()
	s.mu.Unlock()

	select {
	case s.flushCh <- struct{}{}:
	default:
	}
	return out, nil
}

// Pull fetches the stored snapshot and replaces local state with it when it
// is strictly newer than the watermark. Unflushed local changes are lost in
// that case. It reports whether local state was replaced.
func (s *SessionService) Pull(ctx context.Context) (bool, error) {
	data, err := s.store.Get(ctx, s.key())
	if err != nil {
		if errors.Is(err, domain.ErrSnapshotNotFound) {
			return false, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, s.key())
		}
		return false, fmt.Errorf("%w: get %s: %v", domain.ErrSyncFailure, s.key(), err)
	}

	remote, err := domain.DecodeSnapshot(data)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !remote.LastUpdate.After(s.watermark) {
		return false, nil
	}
	if s.dirty {
		s.logger.Debug("discarding unflushed local state",
			"local", s.state.LastUpdate, "remote", remote.LastUpdate)
	}
	s.state = remote
	s.watermark = remote.LastUpdate
	s.dirty = false
	return true, nil
}

// Flush writes the whole local state to the store if it changed since the
// last successful write. The write is unconditional.
func (s *SessionService) Flush(ctx context.Context) error {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	snapshot := s.state.Clone()
	s.mu.Unlock()

	data, err := domain.EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, s.key(), data, s.ttl); err != nil {
		return fmt.Errorf("%w: put %s: %v", domain.ErrSyncFailure, s.key(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if snapshot.LastUpdate.After(s.watermark) {
		s.watermark = snapshot.LastUpdate
	}
	if s.state.LastUpdate.Equal(snapshot.LastUpdate) {
		s.dirty = false
	}
	return nil
}

// Heartbeat stamps this client's liveness into local state. Spectators
// carry no liveness.
func (s *SessionService) Heartbeat() error {
	self := s.Identity()
	var a domain.Action
	switch self.Role {
	case RoleHost:
		a = domain.HostHeartbeat{}
	case RolePlayer:
		a = domain.SetPlayerActive{PlayerID: self.PlayerID}
	default:
		return nil
	}
	_, err := s.apply(a)
	return err
}

// Leave marks this client as gone. Players go inactive and spectators are
// removed. The caller bounds ctx; failure is returned but never retried.
func (s *SessionService) Leave(ctx context.Context) error {
	self := s.Identity()
	var a domain.Action
	switch self.Role {
	case RolePlayer:
		a = domain.SetPlayerInactive{PlayerID: self.PlayerID}
	case RoleSpectator:
		a = domain.RemoveSpectator{SpectatorID: self.PlayerID}
	default:
		return nil
	}
	if _, err := s.apply(a); err != nil {
		return err
	}
	return s.Flush(ctx)
}

// Kicked reports whether this player is missing from the local roster
func (s *SessionService) Kicked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.self.Role == RolePlayer && s.state.FindPlayer(s.self.PlayerID) < 0
}

// Snapshot returns a copy of the local state
func (s *SessionService) Snapshot() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Watermark returns the lastUpdate of the newest snapshot known to be in
// the store
func (s *SessionService) Watermark() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watermark
}

// Dirty reports whether local state holds changes not yet flushed
func (s *SessionService) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Identity returns who this client is in the session
func (s *SessionService) Identity() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.self
}

// FlushRequests fires after every accepted local action
func (s *SessionService) FlushRequests() <-chan struct{} {
	return s.flushCh
}

// Store returns the store this service syncs through
func (s *SessionService) Store() SnapshotStore {
	return s.store
}

// NewID returns a fresh identifier for loans and loan requests
func (s *SessionService) NewID() string {
	return s.newID()
}

// apply runs a without signalling a flush; the caller flushes
func (s *SessionService) apply(a domain.Action) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.dispatcher.Dispatch(s.state, a)
	if err != nil {
		return s.state.Clone(), err
	}
	s.state = next
	s.dirty = true
	return next.Clone(), nil
}

func (s *SessionService) adopt(self Identity, state domain.Session, dirty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.self = self
	s.state = state
	s.dirty = dirty
	if dirty {
		s.watermark = time.Time{}
	} else {
		s.watermark = state.LastUpdate
	}
}

func (s *SessionService) fetch(ctx context.Context, code string) (domain.Session, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !domain.ValidCode(code) {
		return domain.Session{}, &domain.DeclinedError{Action: domain.KindJoinSession, Reason: domain.ReasonInvalidCode}
	}

	data, err := s.store.Get(ctx, domain.SessionKey(code))
	if errors.Is(err, domain.ErrSnapshotNotFound) {
		return domain.Session{}, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, code)
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: get %s: %v", domain.ErrSyncFailure, code, err)
	}
	return domain.DecodeSnapshot(data)
}

func (s *SessionService) freeCode(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := NewSessionCode()
		if err != nil {
			return "", err
		}
		_, err = s.store.Get(ctx, domain.SessionKey(code))
		if errors.Is(err, domain.ErrSnapshotNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("%w: get %s: %v", domain.ErrSyncFailure, code, err)
		}
	}
	return "", fmt.Errorf("no free session code after %d attempts", maxCodeAttempts)
}

func (s *SessionService) key() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.SessionKey(s.self.Code)
}
