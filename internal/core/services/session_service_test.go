package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"tablestakes/internal/adapters/persistence/memory"
	"tablestakes/internal/core/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// flakyStore fails every call while down is set
type flakyStore struct {
	SnapshotStore
	mu   sync.Mutex
	down bool
}

func (f *flakyStore) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

func (f *flakyStore) isDown() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.down
}

func (f *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.isDown() {
		return nil, errors.New("connection refused")
	}
	return f.SnapshotStore.Get(ctx, key)
}

func (f *flakyStore) Put(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if f.isDown() {
		return errors.New("connection refused")
	}
	return f.SnapshotStore.Put(ctx, key, data, ttl)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(store SnapshotStore, clock *fakeClock) *SessionService {
	return NewSessionService(store, SessionConfig{Now: clock.Now}, discardLogger())
}

func storedSession(t *testing.T, store SnapshotStore, code string) domain.Session {
	t.Helper()
	data, err := store.Get(context.Background(), domain.SessionKey(code))
	if err != nil {
		t.Fatalf("get stored snapshot: %v", err)
	}
	s, err := domain.DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode stored snapshot: %v", err)
	}
	return s
}

// seat creates a session hosted by Hank and seats the named players. The
// clock advances one second before every write.
func seat(t *testing.T, store SnapshotStore, clock *fakeClock, names ...string) (*SessionService, []*SessionService) {
	t.Helper()
	ctx := context.Background()

	host := newTestService(store, clock)
	if _, err := host.CreateSession(ctx, "Hank", 1000, true); err != nil {
		t.Fatalf("create session: %v", err)
	}
	code := host.Identity().Code

	players := make([]*SessionService, 0, len(names))
	for _, name := range names {
		clock.Advance(time.Second)
		p := newTestService(store, clock)
		if _, err := p.JoinSession(ctx, code, name); err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
		players = append(players, p)
	}
	return host, players
}

func TestCreateSessionStoresSnapshot(t *testing.T) {
	clock := newFakeClock()
	store := memory.NewStoreWithClock(clock.Now)
	host, _ := seat(t, store, clock)

	self := host.Identity()
	if self.Role != RoleHost || !domain.ValidCode(self.Code) {
		t.Fatalf("unexpected identity %+v", self)
	}
	stored := storedSession(t, store, self.Code)
	if stored.Host != "Hank" || stored.Status != domain.StatusWaiting {
		t.Errorf("unexpected stored session %+v", stored)
	}
	if !host.Watermark().Equal(stored.LastUpdate) || host.Dirty() {
		t.Errorf("watermark must match the flushed snapshot")
	}
}

func TestJoinSession(t *testing.T) {
	clock := newFakeClock()
	store := memory.NewStoreWithClock(clock.Now)
	host, players := seat(t, store, clock, "Alice")
	code := host.Identity().Code
	ctx := context.Background()

	alice := players[0].Identity()
	if alice.Role != RolePlayer || alice.Name != "Alice" || alice.PlayerID == "" {
		t.Fatalf("unexpected identity %+v", alice)
	}
	stored := storedSession(t, store, code)
	if stored.FindPlayer(alice.PlayerID) < 0 || stored.Status != domain.StatusActive {
		t.Errorf("join not persisted: %+v", stored)
	}

	cases := []struct {
		name    string
		code    string
		player  string
		wantErr error
	}{
		{name: "name taken ignoring case", code: code, player: "  alice ", wantErr: domain.ErrNameTaken},
		{name: "unknown code", code: "ZZZZZ9", player: "Bob", wantErr: domain.ErrSessionNotFound},
		{name: "malformed code", code: "abc", player: "Bob", wantErr: domain.ErrValidation},
		{name: "empty name", code: code, player: "   ", wantErr: domain.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newTestService(store, clock).JoinSession(ctx, tc.code, tc.player)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	clock.Advance(time.Second)
	bob := newTestService(store, clock)
	if _, err := bob.JoinSession(ctx, " "+strings.ToLower(code)+" ", "Bob"); err != nil {
		t.Fatalf("lower-case code should resolve: %v", err)
	}
	if got := len(storedSession(t, store, code).Players); got != 2 {
		t.Errorf("expected 2 players, got %d", got)
	}
}

func TestSpectate(t *testing.T) {
	clock := newFakeClock()
	store := memory.NewStoreWithClock(clock.Now)
	host, _ := seat(t, store, clock, "Alice")
	code := host.Identity().Code
	ctx := context.Background()

	clock.Advance(time.Second)
	watcher := newTestService(store, clock)
	if _, err := watcher.Spectate(ctx, code); err != nil {
		t.Fatalf("spectate: %v", err)
	}
	id := watcher.Identity().PlayerID
	if !storedSession(t, store, code).HasSpectator(id) {
		t.Fatalf("spectator not stored")
	}

	if err := watcher.Heartbeat(); err != nil || watcher.Dirty() {
		t.Errorf("spectators carry no liveness: err=%v dirty=%v", err, watcher.Dirty())
	}

	clock.Advance(time.Second)
	if err := watcher.Leave(ctx); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if storedSession(t, store, code).HasSpectator(id) {
		t.Errorf("spectator should be removed on leave")
	}
}

func TestDispatchDeclinedKeepsState(t *testing.T) {
	clock := newFakeClock()
	store := memory.NewStoreWithClock(clock.Now)
	_, players := seat(t, store, clock, "Alice")
	alice := players[0]
	before := alice.Snapshot()

	_, err := alice.Dispatch(domain.PlaceBet{PlayerID: alice.Identity().PlayerID, Amount: 5000})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if r, _ := domain.ReasonOf(err); r != domain.ReasonInsufficientFunds {
		t.Errorf("expected insufficient_funds, got %q", r)
	}
	if alice.Dirty() {
		t.Errorf("declined action must not dirty local state")
	}
	if !alice.Snapshot().LastUpdate.Equal(before.LastUpdate) {
		t.Errorf("declined action changed local state")
	}
	select {
	case <-alice.FlushRequests():
		t.Errorf("declined action must not request a flush")
	default:
	}
}

func TestDispatchRequestsFlush(t *testing.T) {
	clock := newFakeClock()
	store := memory.NewStoreWithClock(clock.Now)
	_, players := seat(t, store, clock, "Alice")
	alice := players[0]

	clock.Advance(time.Second)
	s, err := alice.Dispatch(domain.PlaceBet{PlayerID: alice.Identity().PlayerID, Amount: 200})
	if err != nil {
		t.Fatalf("bet: %v", err)
	}
	if s.MoneyPool != 200 || !alice.Dirty() {
		t.Fatalf("expected dirty local state with pool 200")
	}
	select {
	case <-alice.FlushRequests():
	default:
		t.Fatalf("expected a flush request")
	}

	if err := alice.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if alice.Dirty() || !alice.Watermark().Equal(s.LastUpdate) {
		t.Errorf("flush must clear dirty and advance watermark")
	}
	if got := storedSession(t, store, alice.Identity().Code).MoneyPool; got != 200 {
		t.Errorf("expected stored pool 200, got %d", got)
	}
}

func TestPullReplacesWholeStateWhenNewer(t *testing.T) {
	clock := newFakeClock()
	store := memory.NewStoreWithClock(clock.Now)
	host, players := seat(t, store, clock, "Alice")
	alice := players[0]
	ctx := context.Background()

	if _, err := host.Pull(ctx); err != nil {
		t.Fatalf("host pull: %v", err)
	}
	clock.Advance(time.Second)
	if _, err := host.Dispatch(domain.ToggleBankLoans{}); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := host.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	replaced, err := alice.Pull(ctx)
	if err != nil || !replaced {
		t.Fatalf("expected replacement, got %v %v", replaced, err)
	}
	want, _ := domain.EncodeSnapshot(host.Snapshot())
	got, _ := domain.EncodeSnapshot(alice.Snapshot())
	if !bytes.Equal(want, got) {
		t.Fatalf("local state must equal the newer snapshot exactly\nwant %s\n got %s", want, got)
	}

	older := alice.Snapshot()
	older.LastUpdate = older.LastUpdate.Add(-time.Minute)
	older.MoneyPool = 999
	data, _ := domain.EncodeSnapshot(older)
	if err := store.Put(ctx, domain.SessionKey(older.Code), data, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	if replaced, _ := alice.Pull(ctx); replaced {
		t.Fatalf("older snapshot must not replace local state")
	}
	if alice.Snapshot().MoneyPool != 0 {
		t.Errorf("older snapshot leaked into local state")
	}
}

func TestPullDiscardsUnflushedLocalState(t *testing.T) {
	clock := newFakeClock()
	store := memory.NewStoreWithClock(clock.Now)
	host, players := seat(t, store, clock, "Alice")
	alice := players[0]
	ctx := context.Background()

	if _, err := host.Pull(ctx); err != nil {
		t.Fatalf("host pull: %v", err)
	}

	clock.Advance(time.Second)
	if _, err := alice.Dispatch(domain.PlaceBet{PlayerID: alice.Identity().PlayerID, Amount: 300}); err != nil {
		t.Fatalf("bet: %v", err)
	}

	clock.Advance(time.Second)
	if _, err := host.Dispatch(domain.ToggleBankLoans{}); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := host.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	if replaced, err := alice.Pull(ctx); err != nil || !replaced {
		t.Fatalf("expected replacement, got %v %v", replaced, err)
	}
	s := alice.Snapshot()
	if s.MoneyPool != 0 || s.Players[0].Money != 1000 || alice.Dirty() {
		t.Errorf("unflushed bet should be discarded: pool %d money %d dirty %v", s.MoneyPool, s.Players[0].Money, alice.Dirty())
	}
}

func TestConcurrentWritesLoseEarlierUpdate(t *testing.T) {
	clock := newFakeClock()
	store := memory.NewStoreWithClock(clock.Now)
	_, players := seat(t, store, clock, "Alice", "Bob")
	alice, bob := players[0], players[1]
	ctx := context.Background()

	if _, err := alice.Pull(ctx); err != nil {
		t.Fatalf("alice pull: %v", err)
	}

	clock.Advance(time.Second)
	if _, err := alice.Dispatch(domain.PlaceBet{PlayerID: alice.Identity().PlayerID, Amount: 100}); err != nil {
		t.Fatalf("alice bet: %v", err)
	}
	if err := alice.Flush(ctx); err != nil {
		t.Fatalf("alice flush: %v", err)
	}

	clock.Advance(time.Second)
	if _, err := bob.Dispatch(domain.PlaceBet{PlayerID: bob.Identity().PlayerID, Amount: 50}); err != nil {
		t.Fatalf("bob bet: %v", err)
	}
	if err := bob.Flush(ctx); err != nil {
		t.Fatalf("bob flush: %v", err)
	}

	if _, err := alice.Pull(ctx); err != nil {
		t.Fatalf("alice pull: %v", err)
	}
	s := alice.Snapshot()
	if s.MoneyPool != 50 {
		t.Errorf("later write wins whole-state: expected pool 50, got %d", s.MoneyPool)
	}
	if got := s.Players[s.FindPlayer(alice.Identity().PlayerID)].Money; got != 1000 {
		t.Errorf("alice's bet is lost: expected money 1000, got %d", got)
	}
}

func TestPullErrors(t *testing.T) {
	clock := newFakeClock()
	mem := memory.NewStoreWithClock(clock.Now)
	store := &flakyStore{SnapshotStore: mem}
	_, players := seat(t, store, clock, "Alice")
	alice := players[0]
	ctx := context.Background()
	before := alice.Snapshot()

	if err := mem.Put(ctx, domain.SessionKey(before.Code), []byte(`{"code":`), time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := alice.Pull(ctx); !errors.Is(err, domain.ErrSerialization) {
		t.Errorf("expected serialization error, got %v", err)
	}

	store.setDown(true)
	if _, err := alice.Pull(ctx); !errors.Is(err, domain.ErrSyncFailure) {
		t.Errorf("expected sync failure, got %v", err)
	}

	clock.Advance(time.Second)
	if _, err := alice.Dispatch(domain.Fold{PlayerID: alice.Identity().PlayerID}); err != nil {
		t.Fatalf("fold: %v", err)
	}
	if err := alice.Flush(ctx); !errors.Is(err, domain.ErrSyncFailure) {
		t.Errorf("expected sync failure on flush, got %v", err)
	}
	if !alice.Dirty() {
		t.Errorf("failed flush must keep local changes pending")
	}

	store.setDown(false)
	if err := alice.Flush(ctx); err != nil {
		t.Fatalf("flush after recovery: %v", err)
	}
	if !storedSession(t, mem, before.Code).Players[0].IsFolded {
		t.Errorf("fold should reach the store after recovery")
	}
}
