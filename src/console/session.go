package console

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Session is the signed-in state persisted between runs.
type Session struct {
	APIURL    string      `toml:"api_url,omitempty"`
	Token     string      `toml:"token"`
	ExpiresAt time.Time   `toml:"expires_at"`
	User      SessionUser `toml:"user"`
}

type SessionUser struct {
	ID    uint   `toml:"id"`
	Name  string `toml:"name"`
	Email string `toml:"email"`
	Role  string `toml:"role"`
}

// Active reports whether s holds a token that has not expired.
func (s *Session) Active(now time.Time) bool {
	if s == nil || s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// DefaultSessionPath is $OPSDESK_SESSION or ~/.config/opsdesk/session.toml.
func DefaultSessionPath() string {
	if p := os.Getenv("OPSDESK_SESSION"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "opsdesk", "session.toml")
}

// LoadSession reads the session at path. A missing file is an empty session.
func LoadSession(path string) (*Session, error) {
	s := &Session{}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if _, err := toml.Decode(string(data), s); err != nil {
		return nil, err
	}
	return s, nil
}

func SaveSession(path string, s *Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(s)
}

func ClearSession(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
