package scope

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/alexedwards/scs/v2"

	"anvil/key"
	"anvil/provider"
)

// session is the "Named (session-local)" scope (§4.4), backed by
// alexedwards/scs/v2. scs persists only gob-encodable session data, which
// rules out storing arbitrary reflect.Value instances (interfaces,
// unexported fields, live resources) directly in the session store. So
// the session only ever holds a lookup token; the actual resolved value
// lives in this scope's own token registry. Once the session that issued
// a token expires the token is no longer reachable, but its registry
// entry is not removed: entries live as long as the scope value.
type session struct {
	manager *scs.SessionManager

	mu      sync.Mutex
	entries map[string]reflect.Value
	seq     uint64
}

// NewSession builds the session-local Scope against a live
// scs.SessionManager. Session data is read from the context.Context the
// resolution was started with, so it is present only for requests that
// went through manager.LoadAndSave; nothing in this module installs that
// middleware.
func NewSession(manager *scs.SessionManager) Scope {
	return &session{manager: manager, entries: make(map[string]reflect.Value)}
}

func (s *session) tokenKey(k key.Key) string {
	return "anvil.session." + k.String()
}

func (s *session) nextToken() string {
	return fmt.Sprintf("tok-%d", atomic.AddUint64(&s.seq, 1))
}

func (s *session) Wrap(k key.Key, raw provider.Func) provider.Func {
	tk := s.tokenKey(k)

	return func(ctx any) (reflect.Value, error) {
		std := stdContextOf(ctx)
		if std == nil {
			return reflect.Value{}, fmt.Errorf("session scope: no session context available for %s", k)
		}

		if token := s.manager.GetString(std, tk); token != "" {
			s.mu.Lock()
			v, ok := s.entries[token]
			s.mu.Unlock()
			if ok {
				return v, nil
			}
		}

		v, err := raw(ctx)
		if err != nil {
			return v, err
		}

		token := s.nextToken()
		s.mu.Lock()
		s.entries[token] = v
		s.mu.Unlock()
		s.manager.Put(std, tk, token)

		return v, nil
	}
}
