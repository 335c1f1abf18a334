package sink

import (
	"context"
	"log"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/ayusman/neurosprint/internal/store"
	"github.com/ayusman/neurosprint/internal/trainer"
)

// ReplicatingSink stores sessions locally and forwards them to a replica.
// The local write always happens first; replica failures switch the sink
// offline and leave the session flagged unsynced for SyncPending.
type ReplicatingSink struct {
	local  *LocalSink
	store  *store.Store
	remote *Client

	mu     sync.Mutex
	online bool
	known  map[string]bool // usernames registered on the replica
}

// NewReplicatingSink creates a sink that replicates to remote. It starts
// offline; the first operation that needs the replica checks its health.
func NewReplicatingSink(st *store.Store, remote *Client) *ReplicatingSink {
	return &ReplicatingSink{
		local:  NewLocalSink(st),
		store:  st,
		remote: remote,
		known:  make(map[string]bool),
	}
}

// Online reports whether the last replica interaction succeeded.
func (s *ReplicatingSink) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// Save writes the session locally and then pushes it. Only a local failure
// is returned.
func (s *ReplicatingSink) Save(ctx context.Context, userID string, sum trainer.Summary, trials []trainer.RoundResult) (*store.Session, error) {
	sess, err := s.local.Save(ctx, userID, sum, trials)
	if err != nil {
		return nil, err
	}

	if !s.ensureOnline(ctx) {
		return sess, nil
	}
	if err := s.push(ctx, sess); err != nil {
		s.goOffline(err)
		return sess, nil
	}
	sess.Synced = true
	return sess, nil
}

// SyncPending pushes every unsynced local session, oldest first, and
// returns how many reached the replica. It stops at the first replica
// failure.
func (s *ReplicatingSink) SyncPending(ctx context.Context) (int, error) {
	if !s.ensureOnline(ctx) {
		return 0, nil
	}

	pending, err := s.store.Sessions().ListUnsynced(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "list unsynced sessions")
	}

	pushed := 0
	for _, sess := range pending {
		if err := s.push(ctx, sess); err != nil {
			s.goOffline(err)
			break
		}
		pushed++
	}
	if pushed > 0 {
		log.Printf("synced %d pending session(s) to %s", pushed, s.remote.BaseURL())
	}
	return pushed, nil
}

// Leaderboard prefers the replica and falls back to the local store.
func (s *ReplicatingSink) Leaderboard(ctx context.Context, f store.LeaderboardFilter) ([]store.LeaderboardEntry, error) {
	if s.ensureOnline(ctx) {
		entries, err := s.remote.Leaderboard(ctx, f)
		if err == nil {
			return entries, nil
		}
		s.goOffline(err)
	}
	return s.local.Leaderboard(ctx, f)
}

func (s *ReplicatingSink) push(ctx context.Context, sess *store.Session) error {
	user, err := s.store.Users().GetByID(ctx, sess.UserID)
	if err != nil {
		return goerr.Wrap(err, "look up session user", goerr.V("user_id", sess.UserID))
	}

	if !s.isKnown(user.Username) {
		if err := s.remote.EnsureUser(ctx, user); err != nil {
			return err
		}
		s.markKnown(user.Username)
	}

	if err := s.remote.PushSession(ctx, user.Username, sess); err != nil {
		return err
	}
	if err := s.store.Sessions().MarkSynced(ctx, sess.ID); err != nil {
		return goerr.Wrap(err, "mark session synced", goerr.V("session_id", sess.ID))
	}
	return nil
}

func (s *ReplicatingSink) ensureOnline(ctx context.Context) bool {
	if s.Online() {
		return true
	}
	if err := s.remote.Health(ctx); err != nil {
		return false
	}

	s.mu.Lock()
	s.online = true
	s.mu.Unlock()
	log.Printf("replica %s is reachable", s.remote.BaseURL())
	return true
}

func (s *ReplicatingSink) goOffline(err error) {
	s.mu.Lock()
	s.online = false
	s.mu.Unlock()
	log.Printf("replica %s unavailable, working offline: %v", s.remote.BaseURL(), err)
}

func (s *ReplicatingSink) isKnown(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.known[username]
}

func (s *ReplicatingSink) markKnown(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.known[username] = true
}
