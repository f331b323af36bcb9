// Package hiddenstore persists, per device, the identifiers a user chose to hide
// from each relationship list.
package hiddenstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

const (
	rootPath                   = "."
	storageFileExtension       = ".json"
	storageFilePermission      = 0o600
	storageDirectoryPermission = 0o700
	errMessageEmptyKey         = "storage key cannot be empty"
	errMessageInvalidKey       = "storage key must not contain path separators"
	errMessageDirectoryMissing = "hidden store directory does not exist"
	writeErrorFormat           = "persist %s: %w"
	encodeErrorFormat          = "encode %s: %w"
	createErrorFormat          = "create %s: %w"
	openErrorFormat            = "open %s: %w"
)

// ErrDirectoryNotFound indicates OpenDirectory was given a path that is not an existing directory.
var ErrDirectoryNotFound = errors.New(errMessageDirectoryMissing)

var (
	errEmptyKey   = errors.New(errMessageEmptyKey)
	errInvalidKey = errors.New(errMessageInvalidKey)
)

// Store keeps one JSON array of hidden identifiers per storage key.
type Store struct {
	filesystem billy.Filesystem
	mutex      sync.Mutex
}

// New returns a Store writing into filesystem.
func New(filesystem billy.Filesystem) *Store {
	return &Store{filesystem: filesystem}
}

// NewDirectory returns a Store rooted at directory on the local disk, creating it when absent.
func NewDirectory(directory string) (*Store, error) {
	filesystem := osfs.New(directory)
	if err := filesystem.MkdirAll(rootPath, storageDirectoryPermission); err != nil {
		return nil, fmt.Errorf(createErrorFormat, directory, err)
	}
	return New(filesystem), nil
}

// OpenDirectory returns a Store rooted at an existing directory on the local disk.
func OpenDirectory(directory string) (*Store, error) {
	filesystem := osfs.New(directory)
	info, err := filesystem.Stat(rootPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, directory)
		}
		return nil, fmt.Errorf(openErrorFormat, directory, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, directory)
	}
	return New(filesystem), nil
}

// NewMemory returns a Store that keeps everything in memory.
func NewMemory() *Store {
	return New(memfs.New())
}

// Load returns the hidden identifiers stored under key. Missing or corrupt data
// yields an empty set.
func (store *Store) Load(key string) (map[string]bool, error) {
	fileName, err := storageFileName(key)
	if err != nil {
		return nil, err
	}
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.loadLocked(fileName), nil
}

// Hide adds identifier to the set stored under key.
func (store *Store) Hide(key string, identifier string) error {
	fileName, err := storageFileName(key)
	if err != nil {
		return err
	}
	store.mutex.Lock()
	defer store.mutex.Unlock()

	hidden := store.loadLocked(fileName)
	if hidden[identifier] {
		return nil
	}
	hidden[identifier] = true
	return store.saveLocked(fileName, hidden)
}

// Reset clears the set stored under key.
func (store *Store) Reset(key string) error {
	fileName, err := storageFileName(key)
	if err != nil {
		return err
	}
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.saveLocked(fileName, map[string]bool{})
}

func (store *Store) loadLocked(fileName string) map[string]bool {
	hidden := map[string]bool{}
	content, err := util.ReadFile(store.filesystem, fileName)
	if err != nil {
		return hidden
	}
	var identifiers []string
	if err := json.Unmarshal(content, &identifiers); err != nil {
		return hidden
	}
	for _, identifier := range identifiers {
		hidden[identifier] = true
	}
	return hidden
}

func (store *Store) saveLocked(fileName string, hidden map[string]bool) error {
	identifiers := make([]string, 0, len(hidden))
	for identifier := range hidden {
		identifiers = append(identifiers, identifier)
	}
	sort.Strings(identifiers)
	content, err := json.Marshal(identifiers)
	if err != nil {
		return fmt.Errorf(encodeErrorFormat, fileName, err)
	}
	if err := util.WriteFile(store.filesystem, fileName, content, storageFilePermission); err != nil {
		return fmt.Errorf(writeErrorFormat, fileName, err)
	}
	return nil
}

func storageFileName(key string) (string, error) {
	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return "", errEmptyKey
	}
	if strings.ContainsAny(trimmedKey, `/\`) || trimmedKey != path.Base(trimmedKey) {
		return "", errInvalidKey
	}
	return trimmedKey + storageFileExtension, nil
}
