package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/bk-portal-api/internal/models"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
	"github.com/noah-isme/bk-portal-api/pkg/storage"
)

// fakeProfileStore is an in-memory profile table shared by the account, auth and deletion tests.
type fakeProfileStore struct {
	mu        sync.Mutex
	profiles  map[string]*models.Profile
	auditLogs []*models.AuditLog

	findErr   error
	listErr   error
	countErr  map[string]error
	updateErr error
	deleteErr error
	createErr error
	lastList  models.ProfileFilter
}

func newFakeProfileStore(profiles ...models.Profile) *fakeProfileStore {
	store := &fakeProfileStore{profiles: make(map[string]*models.Profile), countErr: make(map[string]error)}
	for i := range profiles {
		p := profiles[i]
		store.profiles[p.ID] = &p
	}
	return store
}

func (f *fakeProfileStore) FindByID(_ context.Context, id string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *p
	return &clone, nil
}

func (f *fakeProfileStore) List(_ context.Context, filter models.ProfileFilter) ([]models.Profile, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastList = filter
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	var matched []models.Profile
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	for _, p := range f.profiles {
		if filter.Role != nil && p.Role != *filter.Role {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.DisplayName()), search) && !strings.Contains(strings.ToLower(p.Email), search) {
			continue
		}
		matched = append(matched, *p)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := len(matched)
	size := filter.PageSize
	if size <= 0 {
		size = 10
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (f *fakeProfileStore) Count(_ context.Context, role *models.UserRole) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := "all"
	if role != nil {
		key = string(*role)
	}
	if err := f.countErr[key]; err != nil {
		return 0, err
	}
	count := 0
	for _, p := range f.profiles {
		if role == nil || p.Role == *role {
			count++
		}
	}
	return count, nil
}

func (f *fakeProfileStore) CountNotifySubscribers(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.countErr["notify"]; err != nil {
		return 0, err
	}
	count := 0
	for _, p := range f.profiles {
		if p.NotifyEmail {
			count++
		}
	}
	return count, nil
}

func (f *fakeProfileStore) Create(_ context.Context, profile *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	clone := *profile
	f.profiles[profile.ID] = &clone
	return nil
}

func (f *fakeProfileStore) UpdateRole(_ context.Context, id string, role models.UserRole) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	p, ok := f.profiles[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.Role = role
	return nil
}

func (f *fakeProfileStore) UpdateSelf(_ context.Context, profile *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	p, ok := f.profiles[profile.ID]
	if !ok {
		return sql.ErrNoRows
	}
	p.Name = profile.Name
	p.Phone = profile.Phone
	p.Address = profile.Address
	p.NotifyEmail = profile.NotifyEmail
	return nil
}

func (f *fakeProfileStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.profiles, id)
	return nil
}

func (f *fakeProfileStore) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auditLogs = append(f.auditLogs, log)
	return nil
}

func (f *fakeProfileStore) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.auditLogs))
	for _, log := range f.auditLogs {
		out = append(out, log.Action)
	}
	return out
}

func strPtr(s string) *string {
	return &s
}

// fakeObjectStore keeps objects in memory keyed by bucket and path.
type fakeObjectStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	removeErr error
	putErr    error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) Put(_ context.Context, bucket, path string, r io.Reader, _ int64, _ string) error {
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+path] = data
	return nil
}

func (f *fakeObjectStore) Open(_ context.Context, bucket, path string) (io.ReadCloser, *storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[bucket+"/"+path]
	if !ok {
		return nil, nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), &storage.ObjectInfo{Bucket: bucket, Path: path, Size: int64(len(data))}, nil
}

func (f *fakeObjectStore) Remove(_ context.Context, bucket string, paths ...string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range paths {
		delete(f.objects, bucket+"/"+p)
	}
	return nil
}

func (f *fakeObjectStore) PublicURL(bucket, path string) string {
	return "https://cdn.example.com/" + bucket + "/" + path
}

func (f *fakeObjectStore) SignedURL(_ context.Context, bucket, path string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://cdn.example.com/%s/%s?ttl=%d", bucket, path, int(ttl.Seconds())), nil
}

func (f *fakeObjectStore) has(bucket, path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[bucket+"/"+path]
	return ok
}

func (f *fakeObjectStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func pngUpload(name string) *Upload {
	return &Upload{Filename: name, Size: int64(len(pngHeader)), Content: bytes.NewReader(pngHeader)}
}

func textUpload(name, body string) *Upload {
	return &Upload{Filename: name, Size: int64(len(body)), Content: strings.NewReader(body)}
}

type stubCacheRepo struct {
	store map[string][]byte
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	if s.store == nil {
		return appErrors.ErrCacheMiss
	}
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	for key := range s.store {
		if ok, _ := path.Match(pattern, key); ok {
			delete(s.store, key)
		}
	}
	return nil
}
