package usecase

import (
	"sort"
	"strings"
	"sync"

	"github.com/avelore/consignpos-import-service/internal/pendingimport/dto"
)

// editOverlay holds uncommitted field overrides for one staged item.
type editOverlay struct {
	fields map[string]string
	dirty  bool
}

// session is the transient state of one reconciliation view: the selection
// set, the verified-id set and the per-item edit overlays. It never outlives
// the operator's work on a batch.
type session struct {
	selected map[string]struct{}
	verified map[string]struct{}
	edits    map[string]*editOverlay
}

func newSession() *session {
	return &session{
		selected: map[string]struct{}{},
		verified: map[string]struct{}{},
		edits:    map[string]*editOverlay{},
	}
}

// sessionStore is the registry of live sessions, keyed by scope. A single
// operator works a single batch at a time, so a plain mutex is enough.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: map[string]*session{}}
}

// with runs fn against the scope's session, creating it on first touch, and
// returns the resulting selection snapshot.
func (s *sessionStore) with(scope dto.SessionScope, fn func(*session)) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[scope.Key()]
	if !ok {
		sess = newSession()
		s.sessions[scope.Key()] = sess
	}
	fn(sess)
	return sortedKeys(sess.selected)
}

// purgeID removes a deleted item from every session of the merchant so it
// can no longer be selected, verified or edited.
func (s *sessionStore) purgeID(merchantID, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := merchantID + "|"
	for key, sess := range s.sessions {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		delete(sess.selected, id)
		delete(sess.verified, id)
		delete(sess.edits, id)
	}
}

func (s *sessionStore) drop(scope dto.SessionScope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, scope.Key())
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
