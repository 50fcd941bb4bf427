package credstore

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// EnvStore persists credentials in a dotenv file. Reads always hit the
// file so external rotation (another process refreshing the token) is
// picked up; a process-local mutex serializes the read-modify-write on
// Set, but cross-process writes remain last-write-wins.
type EnvStore struct {
	path string
	mu   sync.Mutex
}

// NewEnvStore creates a store over the dotenv file at path. The file is
// created on first Set if it does not exist.
func NewEnvStore(path string) *EnvStore {
	if path == "" {
		path = ".env"
	}
	return &EnvStore{path: path}
}

// Path returns the backing file location.
func (e *EnvStore) Path() string { return e.path }

// Get implements Store.
func (e *EnvStore) Get(key string) (string, bool) {
	vars, err := godotenv.Read(e.path)
	if err != nil {
		return "", false
	}
	v, ok := vars[key]
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Set implements Store.
func (e *EnvStore) Set(key, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	vars, err := godotenv.Read(e.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("reading env file %s: %w", e.path, err)
		}
		vars = map[string]string{}
	}
	vars[key] = value

	if err := godotenv.Write(vars, e.path); err != nil {
		return fmt.Errorf("writing env file %s: %w", e.path, err)
	}
	return nil
}
