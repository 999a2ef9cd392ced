package console

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/bk-portal-api/internal/dto"
	"github.com/noah-isme/bk-portal-api/internal/models"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
)

type fakeBackend struct {
	mu       sync.Mutex
	profiles map[string]models.Profile
	queries  []url.Values

	listErr   error
	getErr    error
	roleErr   error
	deleteErr error
	countErr  map[string]error
	deleteRes *models.DeleteUserResult
	roleCalls int
}

// seedBackend holds 15 siswa and 10 admin profiles.
func seedBackend() *fakeBackend {
	base := time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
	b := &fakeBackend{profiles: make(map[string]models.Profile), countErr: make(map[string]error)}
	for i := 0; i < 25; i++ {
		role := models.RoleStudent
		if i >= 15 {
			role = models.RoleAdmin
		}
		name := fmt.Sprintf("Pengguna %02d", i)
		b.profiles[fmt.Sprintf("p%02d", i)] = models.Profile{
			ID:        fmt.Sprintf("p%02d", i),
			Name:      &name,
			Email:     fmt.Sprintf("user%02d@example.com", i),
			Role:      role,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
	}
	return b
}

func (b *fakeBackend) ListAccounts(_ context.Context, query url.Values) ([]models.Profile, int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queries = append(b.queries, query)
	if b.listErr != nil {
		return nil, 0, b.listErr
	}
	role := query.Get("role")
	search := strings.ToLower(query.Get("search"))
	var matched []models.Profile
	for _, p := range b.profiles {
		if role != "" && string(p.Role) != role {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.DisplayName()), search) && !strings.Contains(strings.ToLower(p.Email), search) {
			continue
		}
		matched = append(matched, p)
	}
	desc := !strings.HasSuffix(query.Get("sort"), "_asc")
	byName := strings.HasPrefix(query.Get("sort"), "name_")
	sort.Slice(matched, func(i, j int) bool {
		less := matched[i].CreatedAt.Before(matched[j].CreatedAt)
		if byName {
			less = matched[i].DisplayName() < matched[j].DisplayName()
		}
		if desc {
			return !less
		}
		return less
	})
	page, _ := strconv.Atoi(query.Get("page"))
	size, _ := strconv.Atoi(query.Get("page_size"))
	start := (page - 1) * size
	if start > len(matched) {
		start = len(matched)
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], len(matched), nil
}

func (b *fakeBackend) GetAccount(_ context.Context, id string) (*models.Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.getErr != nil {
		return nil, b.getErr
	}
	p, ok := b.profiles[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
	}
	return &p, nil
}

func (b *fakeBackend) UpdateRole(_ context.Context, id string, role models.UserRole) (*models.Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roleCalls++
	if b.roleErr != nil {
		return nil, b.roleErr
	}
	p := b.profiles[id]
	p.Role = role
	b.profiles[id] = p
	return &p, nil
}

func (b *fakeBackend) UpdateMyProfile(_ context.Context, req dto.UpdateProfileRequest) (*models.Profile, error) {
	return &models.Profile{ID: "self", Name: req.Name}, nil
}

func (b *fakeBackend) DeleteUser(_ context.Context, id string) (*models.DeleteUserResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deleteErr != nil {
		return nil, b.deleteErr
	}
	delete(b.profiles, id)
	if b.deleteRes != nil {
		return b.deleteRes, nil
	}
	return &models.DeleteUserResult{UserID: id, Outcome: models.DeleteOutcomeDeleted}, nil
}

func (b *fakeBackend) CountAccounts(_ context.Context, role string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.countErr[role]; err != nil {
		return 0, err
	}
	count := 0
	for _, p := range b.profiles {
		if role == models.RoleFilterAll || string(p.Role) == role {
			count++
		}
	}
	return count, nil
}

func (b *fakeBackend) lastQuery() url.Values {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queries) == 0 {
		return nil
	}
	return b.queries[len(b.queries)-1]
}

type recordingSink struct {
	mu      sync.Mutex
	renders [][]Row
	pagers  []Pager
}

func (s *recordingSink) RenderRows(rows []Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renders = append(s.renders, rows)
}

func (s *recordingSink) RenderPager(p Pager) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pagers = append(s.pagers, p)
}

func (s *recordingSink) last() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.renders) == 0 {
		return nil
	}
	return s.renders[len(s.renders)-1]
}

type note struct {
	level   Level
	message string
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []note
}

func (n *recordingNotifier) Notify(level Level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note{level, message})
}

func (n *recordingNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.notes))
	for _, item := range n.notes {
		out = append(out, item.message)
	}
	return out
}

type mapKPISink struct {
	mu     sync.Mutex
	values map[string]int
}

func newMapKPISink() *mapKPISink {
	return &mapKPISink{values: make(map[string]int)}
}

func (s *mapKPISink) SetKPI(metric string, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[metric] = value
}

func (s *mapKPISink) get(metric string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[metric]
	return v, ok
}

type scriptedConfirmer struct {
	answer   bool
	messages []string
}

func (c *scriptedConfirmer) Confirm(message string) bool {
	c.messages = append(c.messages, message)
	return c.answer
}

var errBoom = errors.New("boom")
