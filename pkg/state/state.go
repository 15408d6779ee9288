// pkg/state/state.go

// Package state persists the installer's on-disk record under the xui home
// (~/.xui by default): what commit is installed, which update channel is
// selected, and which OS packages the resolver installed. Writes are
// write-temp-then-rename so an interrupted run never leaves a torn file.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	cerr "github.com/cockroachdb/errors"
)

const (
	updateStateFile = "update_state.json"
	channelFile     = "update_channel.json"
	packagesFile    = "installed_packages.json"
)

// UpdateState records what the installer last provisioned.
type UpdateState struct {
	InstalledCommit  string    `json:"installed_commit"`
	InstalledAt      time.Time `json:"installed_at"`
	InstallerVersion string    `json:"installer_version,omitempty"`
}

// Channel records the selected update channel.
type Channel struct {
	Branch string `json:"branch"`
}

// PackagesRecord lists OS packages installed by the dependency resolver.
type PackagesRecord struct {
	Packages []string `json:"packages"`
}

// Home returns the xui home directory. XUI_HOME overrides ~/.xui.
func Home() (string, error) {
	if home := os.Getenv("XUI_HOME"); home != "" {
		return home, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", cerr.Wrap(err, "resolve user home")
	}
	return filepath.Join(userHome, ".xui"), nil
}

// DataDir returns the state directory under the xui home, creating it.
func DataDir() (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, "data")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", cerr.Wrapf(err, "create data dir %s", dir)
	}
	return dir, nil
}

// Store reads and writes installer state files in one directory.
type Store struct {
	Dir string
}

// NewStore opens the default state store under the xui home.
func NewStore() (*Store, error) {
	dir, err := DataDir()
	if err != nil {
		return nil, err
	}
	return &Store{Dir: dir}, nil
}

// LoadUpdateState returns the recorded state, or a zero value when absent.
func (s *Store) LoadUpdateState() (UpdateState, error) {
	var st UpdateState
	err := s.load(updateStateFile, &st)
	return st, err
}

// SaveUpdateState persists the recorded state atomically.
func (s *Store) SaveUpdateState(st UpdateState) error {
	return s.save(updateStateFile, st)
}

// LoadChannel returns the selected channel, or a zero value when absent.
func (s *Store) LoadChannel() (Channel, error) {
	var ch Channel
	err := s.load(channelFile, &ch)
	return ch, err
}

// SaveChannel persists the selected channel atomically.
func (s *Store) SaveChannel(ch Channel) error {
	return s.save(channelFile, ch)
}

// LoadPackages returns the recorded package list, or a zero value when absent.
func (s *Store) LoadPackages() (PackagesRecord, error) {
	var rec PackagesRecord
	err := s.load(packagesFile, &rec)
	return rec, err
}

// RecordPackage appends a package to the installed record, once.
func (s *Store) RecordPackage(name string) error {
	rec, err := s.LoadPackages()
	if err != nil {
		return err
	}
	for _, p := range rec.Packages {
		if p == name {
			return nil
		}
	}
	rec.Packages = append(rec.Packages, name)
	return s.save(packagesFile, rec)
}

// Clear removes all installer state files. Missing files are no-ops.
func (s *Store) Clear() error {
	for _, name := range []string{updateStateFile, channelFile, packagesFile} {
		if err := os.Remove(filepath.Join(s.Dir, name)); err != nil && !os.IsNotExist(err) {
			return cerr.Wrapf(err, "remove %s", name)
		}
	}
	return nil
}

func (s *Store) load(name string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.Dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return cerr.Wrapf(err, "read %s", name)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return cerr.Wrapf(err, "parse %s", name)
	}
	return nil
}

func (s *Store) save(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return cerr.Wrapf(err, "encode %s", name)
	}
	return WriteFileAtomic(filepath.Join(s.Dir, name), append(data, '\n'), 0o600)
}

// WriteFileAtomic writes data to a temp file in the same directory and
// renames it over path, so readers see either the old or the new content.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return cerr.Wrapf(err, "create temp file in %s", dir)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return cerr.Wrap(err, "chmod temp file")
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return cerr.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return cerr.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return cerr.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return cerr.Wrapf(err, "rename into place: %s", path)
	}
	return nil
}
