package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"tablestakes/internal/core/domain"
)

// SyncConfig tunes the SyncAgent loop
type SyncConfig struct {
	PollInterval       time.Duration
	HostReconnectAfter time.Duration
	HostTimeout        time.Duration
	TeardownTimeout    time.Duration
	Now                func() time.Time
}

// SyncAgent reconciles the local session with the store: it polls, replaces
// local state with strictly newer snapshots, stamps liveness, watches the
// host and writes local changes back.
type SyncAgent struct {
	session *SessionService
	cfg     SyncConfig
	logger  *slog.Logger
	updates chan domain.Session

	published time.Time
}

// NewSyncAgent creates a new sync agent for session
func NewSyncAgent(session *SessionService, cfg SyncConfig, logger *slog.Logger) *SyncAgent {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.HostReconnectAfter <= 0 {
		cfg.HostReconnectAfter = 10 * time.Second
	}
	if cfg.HostTimeout <= 0 {
		cfg.HostTimeout = 60 * time.Second
	}
	if cfg.TeardownTimeout <= 0 {
		cfg.TeardownTimeout = 2 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SyncAgent{
		session: session,
		cfg:     cfg,
		logger:  logger,
		updates: make(chan domain.Session, 1),
	}
}

// Updates delivers the latest local state whenever it changes. Only the
// newest state is kept for a slow reader.
func (a *SyncAgent) Updates() <-chan domain.Session {
	return a.updates
}

// Run loops until ctx is done or the session ends for this client. It
// returns nil on cancellation, domain.ErrKicked or domain.ErrSessionCancelled
// otherwise.
func (a *SyncAgent) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.PollInterval)
	defer ticker.Stop()

	notify := a.subscribe(ctx)
	a.publish()

	for {
		var err error
		select {
		case <-ctx.Done():
			a.teardown()
			return nil
		case <-ticker.C:
			err = a.Tick(ctx)
		case <-a.session.FlushRequests():
			a.flush(ctx)
			a.publish()
		case _, ok := <-notify:
			if !ok {
				notify = nil
				continue
			}
			err = a.Poll(ctx)
		}

		if err != nil {
			if errors.Is(err, domain.ErrSessionCancelled) {
				a.teardown()
			}
			return err
		}
	}
}

// Tick runs one poll, liveness and flush cycle
func (a *SyncAgent) Tick(ctx context.Context) error {
	if err := a.Poll(ctx); err != nil {
		return err
	}

	if err := a.session.Heartbeat(); err != nil {
		a.logger.Debug("heartbeat declined", "error", err)
	}
	a.watchHost()
	a.flush(ctx)
	a.publish()

	if a.session.Snapshot().Status == domain.StatusCancelled {
		return domain.ErrSessionCancelled
	}
	return nil
}

// Poll adopts a newer stored snapshot, if any, and reports a terminal
// state for this client. Store and decode failures are logged only.
func (a *SyncAgent) Poll(ctx context.Context) error {
	replaced, err := a.session.Pull(ctx)
	switch {
	case errors.Is(err, domain.ErrSerialization):
		a.logger.Warn("discarding corrupt snapshot", "error", err)
	case err != nil:
		a.logger.Warn("poll failed", "error", err)
	case replaced:
		a.logger.Debug("adopted remote snapshot", "lastUpdate", a.session.Watermark())
	}
	a.publish()

	if a.session.Kicked() {
		a.logger.Info("removed from session", "player", a.session.Identity().Name)
		return domain.ErrKicked
	}
	if a.session.Snapshot().Status == domain.StatusCancelled {
		return domain.ErrSessionCancelled
	}
	return nil
}

// watchHost degrades and then cancels the session when the host's
// heartbeat goes stale. The host never judges itself.
func (a *SyncAgent) watchHost() {
	if a.session.Identity().Role == RoleHost {
		return
	}
	s := a.session.Snapshot()
	if s.Status != domain.StatusActive && s.Status != domain.StatusHostReconnecting {
		return
	}

	idle := a.cfg.Now().Sub(s.HostLastActive)
	switch {
	case idle > a.cfg.HostTimeout:
		a.logger.Warn("host timed out, cancelling session", "code", s.Code, "idle", idle)
		if _, err := a.session.Dispatch(domain.CancelSession{}); err != nil {
			a.logger.Debug("cancel declined", "error", err)
		}
	case idle > a.cfg.HostReconnectAfter && s.Status == domain.StatusActive:
		a.logger.Info("host unresponsive", "code", s.Code, "idle", idle)
		if _, err := a.session.Dispatch(domain.MarkHostReconnecting{}); err != nil {
			a.logger.Debug("reconnect mark declined", "error", err)
		}
	}
}

func (a *SyncAgent) flush(ctx context.Context) {
	if err := a.session.Flush(ctx); err != nil {
		a.logger.Warn("flush failed", "error", err)
	}
}

func (a *SyncAgent) publish() {
	s := a.session.Snapshot()
	if !a.published.IsZero() && s.LastUpdate.Equal(a.published) {
		return
	}
	a.published = s.LastUpdate

	select {
	case <-a.updates:
	default:
	}
	a.updates <- s
}

func (a *SyncAgent) subscribe(ctx context.Context) <-chan struct{} {
	sub, ok := a.session.Store().(Subscriber)
	if !ok {
		return nil
	}
	ch, err := sub.Subscribe(ctx, domain.SessionKey(a.session.Identity().Code))
	if err != nil {
		a.logger.Warn("subscribe failed, polling only", "error", err)
		return nil
	}
	return ch
}

// teardown marks this client gone without blocking exit for long
func (a *SyncAgent) teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.TeardownTimeout)
	defer cancel()
	if err := a.session.Leave(ctx); err != nil {
		a.logger.Debug("leave failed", "error", err)
	}
}
