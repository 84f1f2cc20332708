package policy

import "sync"

// Store holds the active configuration behind a lock so concurrent
// embeddings (one gate per session, a hot-reloader writing) stay safe.
type Store struct {
	mu  sync.RWMutex
	cfg *Config
}

// NewStore creates a Store around the given configuration.
// A nil configuration falls back to defaults.
func NewStore(cfg *Config) *Store {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Store{cfg: cfg.clone()}
}

// Current returns a snapshot copy of the active configuration.
func (s *Store) Current() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.clone()
}

// Apply merges the non-nil fields of an Update over the active
// configuration. Unspecified fields keep their previous values.
func (s *Store) Apply(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.cfg.clone()
	if u.DefaultConfirmation != nil {
		cfg.DefaultConfirmation = *u.DefaultConfirmation
	}
	if u.DenyNetwork != nil {
		cfg.DenyNetwork = *u.DenyNetwork
	}
	if u.MaxFileSize != nil {
		cfg.MaxFileSize = *u.MaxFileSize
	}
	if u.MaxOutputSize != nil {
		cfg.MaxOutputSize = *u.MaxOutputSize
	}
	if u.PathAllowlist != nil {
		cfg.PathAllowlist = append([]string(nil), (*u.PathAllowlist)...)
	}
	if u.PathDenylist != nil {
		cfg.PathDenylist = append([]string(nil), (*u.PathDenylist)...)
	}
	if u.CommandAllowlist != nil {
		cfg.CommandAllowlist = append([]string(nil), (*u.CommandAllowlist)...)
	}
	if u.CommandDenylist != nil {
		cfg.CommandDenylist = append([]string(nil), (*u.CommandDenylist)...)
	}
	s.cfg = cfg
}

// Replace swaps the entire configuration, used by hot reload.
// A nil configuration is ignored so a failed reload keeps the old policy.
func (s *Store) Replace(cfg *Config) {
	if cfg == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg.clone()
}
