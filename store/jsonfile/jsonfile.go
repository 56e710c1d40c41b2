/*
Package jsonfile stores each collection as one JSON document on disk.

PURPOSE:
  A dependency-free deployment option: no database, just a data directory
  holding retirementRecords.json and users.json. Every save rewrites the
  whole collection, so the last writer wins.

LAYERS:
  KV:      generic.KeyValue over a directory, one file per key,
           written to a temp file and renamed into place
  Records: remittance.Store over a KV
  Users:   users.Store over a KV

READ FAILURES:
  Reads treat a missing or unreadable collection as empty (and log it),
  so a corrupt file never blocks startup. Mutations refuse to run over an
  unreadable collection and return a persistence error instead, so a
  damaged file is never overwritten with a partial one.

SEE ALSO:
  - generic/store.go: KeyValue contract
  - store/sqlite:     row-level backend
*/
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/warp/remittance-engine/generic"
	"github.com/warp/remittance-engine/remittance"
	"github.com/warp/remittance-engine/users"
)

// =============================================================================
// KV - file per key
// =============================================================================

// KV implements generic.KeyValue on a directory.
type KV struct {
	dir string
	mu  sync.RWMutex
}

var _ generic.KeyValue = (*KV)(nil)

// NewKV creates dir if needed.
func NewKV(dir string) (*KV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &KV{dir: dir}, nil
}

func (k *KV) path(key string) string {
	return filepath.Join(k.dir, key+".json")
}

// Load decodes the blob under key into v.
func (k *KV) Load(_ context.Context, key string, v any) (bool, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	data, err := os.ReadFile(k.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Save replaces the blob under key.
func (k *KV) Save(_ context.Context, key string, v any) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	tmp, err := os.CreateTemp(k.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), k.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// =============================================================================
// RECORDS
// =============================================================================

// Records implements remittance.Store on a single collection blob.
type Records struct {
	kv  generic.KeyValue
	log *zap.Logger
	mu  sync.Mutex
}

var _ remittance.Store = (*Records)(nil)

func NewRecords(kv generic.KeyValue, log *zap.Logger) *Records {
	if log == nil {
		log = zap.NewNop()
	}
	return &Records{kv: kv, log: log}
}

// read decodes the collection, failing on an unreadable blob.
func (s *Records) read(ctx context.Context) ([]remittance.Record, error) {
	var recs []remittance.Record
	if _, err := s.kv.Load(ctx, generic.KeyRecords, &recs); err != nil {
		return nil, generic.WrapStore("load records", err)
	}
	if recs == nil {
		recs = []remittance.Record{}
	}
	return recs, nil
}

// load is read for the query paths: an unreadable blob reads as empty.
func (s *Records) load(ctx context.Context) []remittance.Record {
	recs, err := s.read(ctx)
	if err != nil {
		s.log.Warn("records collection unreadable, starting empty", zap.Error(err))
		return []remittance.Record{}
	}
	return recs
}

func (s *Records) ListRecords(ctx context.Context) ([]remittance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.load(ctx)
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	return recs, nil
}

func (s *Records) GetRecord(ctx context.Context, id string) (*remittance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.load(ctx) {
		if r.ID == id {
			r := r
			return &r, nil
		}
	}
	return nil, nil
}

func (s *Records) UpsertRecord(ctx context.Context, r remittance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.read(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range recs {
		if recs[i].ID == r.ID {
			recs[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		recs = append(recs, r)
	}
	return s.kv.Save(ctx, generic.KeyRecords, recs)
}

func (s *Records) DeleteRecord(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.read(ctx)
	if err != nil {
		return err
	}
	out := recs[:0]
	for _, r := range recs {
		if r.ID != id {
			out = append(out, r)
		}
	}
	if len(out) == len(recs) {
		return fmt.Errorf("%w: %s", generic.ErrRecordNotFound, id)
	}
	return s.kv.Save(ctx, generic.KeyRecords, out)
}

// ResetRecords empties the collection.
func (s *Records) ResetRecords(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.Save(ctx, generic.KeyRecords, []remittance.Record{})
}

// =============================================================================
// USERS
// =============================================================================

// Users implements users.Store on a single collection blob.
type Users struct {
	kv  generic.KeyValue
	log *zap.Logger
	mu  sync.Mutex
}

var _ users.Store = (*Users)(nil)

func NewUsers(kv generic.KeyValue, log *zap.Logger) *Users {
	if log == nil {
		log = zap.NewNop()
	}
	return &Users{kv: kv, log: log}
}

func (s *Users) read(ctx context.Context) ([]users.User, error) {
	var list []users.User
	if _, err := s.kv.Load(ctx, generic.KeyUsers, &list); err != nil {
		return nil, generic.WrapStore("load users", err)
	}
	if list == nil {
		list = []users.User{}
	}
	return list, nil
}

func (s *Users) load(ctx context.Context) []users.User {
	list, err := s.read(ctx)
	if err != nil {
		s.log.Warn("users collection unreadable, starting empty", zap.Error(err))
		return []users.User{}
	}
	return list
}

func (s *Users) ListUsers(ctx context.Context) ([]users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.load(ctx)
	sort.Slice(list, func(i, j int) bool { return list[i].Username < list[j].Username })
	return list, nil
}

func (s *Users) GetUser(ctx context.Context, id string) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.load(ctx) {
		if u.ID == id {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Users) GetUserByUsername(ctx context.Context, username string) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.load(ctx) {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Users) SaveUser(ctx context.Context, u users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.read(ctx)
	if err != nil {
		return err
	}
	idx := -1
	for i, other := range list {
		if other.ID == u.ID {
			idx = i
			continue
		}
		if other.Username == u.Username {
			return fmt.Errorf("%w: %s", generic.ErrDuplicateUsername, u.Username)
		}
	}
	if idx >= 0 {
		list[idx] = u
	} else {
		list = append(list, u)
	}
	return s.kv.Save(ctx, generic.KeyUsers, list)
}

func (s *Users) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.read(ctx)
	if err != nil {
		return err
	}
	out := list[:0]
	for _, u := range list {
		if u.ID != id {
			out = append(out, u)
		}
	}
	if len(out) == len(list) {
		return fmt.Errorf("%w: %s", generic.ErrUserNotFound, id)
	}
	return s.kv.Save(ctx, generic.KeyUsers, out)
}
