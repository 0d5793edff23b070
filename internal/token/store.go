// Package token persists the signed-in token pair across two storage
// scopes: a durable one that survives reboots and a session one that does
// not. Which scope holds the current pair is recorded in a marker so a
// refreshed pair lands back in the scope the user chose at login.
package token

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Storage scope names recorded in the marker.
const (
	ScopeDurable = "durable"
	ScopeSession = "session"
)

// Pair is an access/refresh token pair. Either field may be empty.
type Pair struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
}

// Zero reports whether the pair holds no tokens at all.
func (p Pair) Zero() bool { return p.Access == "" && p.Refresh == "" }

// Scope stores and retrieves one token pair. Read reports a zero pair
// when nothing is stored; absence is not an error.
type Scope interface {
	Read() (Pair, error)
	Write(Pair) error
	Clear() error
}

// Marker remembers which scope the current pair was saved to.
type Marker interface {
	Get() (string, error)
	Set(string) error
	Clear() error
}

// Store coordinates the durable and session scopes plus the scope marker.
// All methods are safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	durable Scope
	session Scope
	marker  Marker
}

// NewStore builds a Store over explicit scopes. Most callers want
// NewFileStore or NewMemStore instead.
func NewStore(durable, session Scope, marker Marker) *Store {
	return &Store{durable: durable, session: session, marker: marker}
}

// NewFileStore wires file-backed scopes: tokens.json under configDir for
// the durable scope, session-tokens.json under runtimeDir for the session
// scope, and the scope marker next to the durable file.
func NewFileStore(configDir, runtimeDir string) *Store {
	return NewStore(
		fileScope{path: filepath.Join(configDir, "tokens.json")},
		fileScope{path: filepath.Join(runtimeDir, "session-tokens.json")},
		fileMarker{path: filepath.Join(configDir, "token-scope")},
	)
}

// NewMemStore keeps both scopes in memory. Useful in tests and for
// one-shot invocations that must not touch the filesystem.
func NewMemStore() *Store {
	return NewStore(&memScope{}, &memScope{}, &memMarker{})
}

// DefaultDirs resolves the directories NewFileStore expects. overrideDir,
// when set, is used for both scopes. Otherwise the durable scope lives in
// the user config dir and the session scope in XDG_RUNTIME_DIR (a tmpfs
// on most distros, so it vanishes on reboot) with a per-user temp dir as
// fallback.
func DefaultDirs(overrideDir string) (configDir, runtimeDir string) {
	if overrideDir != "" {
		return overrideDir, overrideDir
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		configDir = filepath.Join(v, "dealgrid")
	} else {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config", "dealgrid")
	}
	if v := os.Getenv("XDG_RUNTIME_DIR"); v != "" {
		runtimeDir = filepath.Join(v, "dealgrid")
	} else {
		runtimeDir = filepath.Join(os.TempDir(), "dealgrid-"+strconv.Itoa(os.Getuid()))
	}
	return configDir, runtimeDir
}

// Save persists the pair into the scope selected by remember and records
// the choice. The other scope is cleared so at most one pair is current.
func (st *Store) Save(p Pair, remember bool) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	scope, other, name := st.session, st.durable, ScopeSession
	if remember {
		scope, other, name = st.durable, st.session, ScopeDurable
	}
	if err := scope.Write(p); err != nil {
		return err
	}
	if err := other.Clear(); err != nil {
		return err
	}
	return st.marker.Set(name)
}

// Update rewrites the pair in whatever scope currently holds it, so a
// refresh does not change where the session lives. With no current scope
// it falls back to the session scope.
func (st *Store) Update(p Pair) error {
	return st.Save(p, st.Scope() == ScopeDurable)
}

// Access returns the stored access token, preferring the session scope.
// Absence is an empty string, never an error.
func (st *Store) Access() string { return st.current().Access }

// Refresh returns the stored refresh token, preferring the session scope.
func (st *Store) Refresh() string { return st.current().Refresh }

// Has reports whether a usable pair (both tokens) is stored.
func (st *Store) Has() bool {
	p := st.current()
	return p.Access != "" && p.Refresh != ""
}

// Scope names the scope holding the current pair: the marker value when
// set, otherwise wherever tokens are found, otherwise "".
func (st *Store) Scope() string {
	st.mu.Lock()
	defer st.mu.Unlock()

	if name, err := st.marker.Get(); err == nil {
		switch strings.TrimSpace(name) {
		case ScopeSession:
			return ScopeSession
		case ScopeDurable:
			return ScopeDurable
		}
	}
	if p, err := st.session.Read(); err == nil && !p.Zero() {
		return ScopeSession
	}
	if p, err := st.durable.Read(); err == nil && !p.Zero() {
		return ScopeDurable
	}
	return ""
}

// Clear empties both scopes and the marker. Clearing an already empty
// store succeeds.
func (st *Store) Clear() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := st.session.Clear(); err != nil {
		return err
	}
	if err := st.durable.Clear(); err != nil {
		return err
	}
	return st.marker.Clear()
}

// current reads both scopes, preferring the session one, so a scope
// switch mid-session never strands a valid pair.
func (st *Store) current() Pair {
	st.mu.Lock()
	defer st.mu.Unlock()

	if p, err := st.session.Read(); err == nil && !p.Zero() {
		return p
	}
	if p, err := st.durable.Read(); err == nil && !p.Zero() {
		return p
	}
	return Pair{}
}

// fileScope persists a pair as a JSON file with owner-only permissions.
// A missing or unreadable file reads as an empty pair.
type fileScope struct {
	path string
}

func (s fileScope) Read() (Pair, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return Pair{}, nil
	}
	var p Pair
	if err := json.Unmarshal(b, &p); err != nil {
		return Pair{}, nil
	}
	return p, nil
}

func (s fileScope) Write(p Pair) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}

func (s fileScope) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

type fileMarker struct {
	path string
}

func (m fileMarker) Get() (string, error) {
	b, err := os.ReadFile(m.path)
	if err != nil {
		return "", nil
	}
	return string(b), nil
}

func (m fileMarker) Set(name string) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(m.path, []byte(name), 0o600)
}

func (m fileMarker) Clear() error {
	if err := os.Remove(m.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

type memScope struct {
	p   Pair
	set bool
}

func (s *memScope) Read() (Pair, error) {
	if !s.set {
		return Pair{}, nil
	}
	return s.p, nil
}

func (s *memScope) Write(p Pair) error { s.p, s.set = p, true; return nil }
func (s *memScope) Clear() error       { s.p, s.set = Pair{}, false; return nil }

type memMarker struct {
	name string
}

func (m *memMarker) Get() (string, error) { return m.name, nil }
func (m *memMarker) Set(n string) error   { m.name = n; return nil }
func (m *memMarker) Clear() error         { m.name = ""; return nil }
