package console

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/bk-portal-api/internal/dto"
	"github.com/noah-isme/bk-portal-api/internal/models"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
)

// Console messages.
const (
	MsgDetailLoadFailed = "Gagal memuat detail akun."
	MsgRoleUpdated      = "Peran akun berhasil diperbarui."
	MsgProfileSaved     = "Profil berhasil disimpan."
	MsgAccountDeleted   = "Akun berhasil dihapus."
	MsgDeleteFallback   = "Gagal menghapus akun."
)

// AccountBackend is the API surface the account console drives.
type AccountBackend interface {
	ListAccounts(ctx context.Context, query url.Values) ([]models.Profile, int, error)
	GetAccount(ctx context.Context, id string) (*models.Profile, error)
	UpdateRole(ctx context.Context, id string, role models.UserRole) (*models.Profile, error)
	UpdateMyProfile(ctx context.Context, req dto.UpdateProfileRequest) (*models.Profile, error)
	DeleteUser(ctx context.Context, id string) (*models.DeleteUserResult, error)
	CountAccounts(ctx context.Context, role string) (int, error)
}

// NewAccountList builds the account list controller.
func NewAccountList(backend AccountBackend, renderer *Renderer, sink TableSink, notifier Notifier, logger *zap.Logger) *ListController[models.Profile] {
	spec, _ := Spec(ViewAccounts)
	return NewListController(ListOptions[models.Profile]{
		Spec: spec,
		Fetch: func(ctx context.Context, query url.Values) (Page[models.Profile], error) {
			items, total, err := backend.ListAccounts(ctx, query)
			return Page[models.Profile]{Items: items, Total: total}, err
		},
		Render:   renderer.Account,
		ID:       func(p models.Profile) string { return p.ID },
		Sink:     sink,
		Notifier: notifier,
		Logger:   logger,
	})
}

// AccountModal is the detail/edit dialog of the account view.
type AccountModal struct {
	mu       sync.Mutex
	backend  AccountBackend
	list     *ListController[models.Profile]
	kpis     *KPIBoard
	notifier Notifier
	logger   *zap.Logger
	current  *models.Profile
}

// NewAccountModal wires the modal to the list it refreshes. list and kpis
// may be nil.
func NewAccountModal(backend AccountBackend, list *ListController[models.Profile], kpis *KPIBoard, notifier Notifier, logger *zap.Logger) *AccountModal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountModal{backend: backend, list: list, kpis: kpis, notifier: notifier, logger: logger}
}

// Open loads the profile with exactly id. On failure the modal stays closed.
func (m *AccountModal) Open(ctx context.Context, id string) bool {
	id = strings.TrimSpace(id)
	if m.list != nil {
		if cached, ok := m.list.Lookup(id); ok {
			m.mu.Lock()
			m.current = &cached
			m.mu.Unlock()
			return true
		}
	}
	profile, err := m.backend.GetAccount(ctx, id)
	if err != nil || profile == nil || profile.ID != id {
		m.logger.Warn("account detail load failed", zap.String("id", id), zap.Error(err))
		m.notifier.Notify(LevelError, MsgDetailLoadFailed)
		return false
	}
	m.mu.Lock()
	m.current = profile
	m.mu.Unlock()
	return true
}

// Current returns the open profile or nil.
func (m *AccountModal) Current() *models.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	clone := *m.current
	return &clone
}

// Close hides the modal without prompting.
func (m *AccountModal) Close() {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
}

// SubmitRole changes the open account's role after confirmation. A declined
// confirmation is a no-op; a failure keeps the modal open.
func (m *AccountModal) SubmitRole(ctx context.Context, role models.UserRole, confirm Confirmer) bool {
	current := m.Current()
	if current == nil {
		return false
	}
	if !confirm.Confirm(fmt.Sprintf("Apakah Anda yakin ingin mengubah peran akun ini menjadi \"%s\"?", role)) {
		return false
	}
	if _, err := m.backend.UpdateRole(ctx, current.ID, role); err != nil {
		m.notifier.Notify(LevelError, "Gagal memperbarui peran: "+errorMessage(err))
		return false
	}
	m.notifier.Notify(LevelSuccess, MsgRoleUpdated)
	m.Close()
	if m.list != nil {
		m.list.Load(ctx)
	}
	m.kpis.Refresh(ctx)
	return true
}

// SubmitSelfProfile saves the caller's own whitelisted profile fields without confirmation.
func (m *AccountModal) SubmitSelfProfile(ctx context.Context, req dto.UpdateProfileRequest) (*models.Profile, bool) {
	profile, err := m.backend.UpdateMyProfile(ctx, req)
	if err != nil {
		m.notifier.Notify(LevelError, "Gagal menyimpan profil: "+errorMessage(err))
		return nil, false
	}
	m.notifier.Notify(LevelSuccess, MsgProfileSaved)
	return profile, true
}

// Delete removes the open account through the privileged function. On
// failure nothing changes; on success the list returns to its first page.
func (m *AccountModal) Delete(ctx context.Context, confirm Confirmer) bool {
	current := m.Current()
	if current == nil {
		return false
	}
	if !confirm.Confirm(fmt.Sprintf("Hapus akun \"%s\"? Tindakan ini tidak dapat dibatalkan.", current.Email)) {
		return false
	}
	result, err := m.backend.DeleteUser(ctx, current.ID)
	if err != nil {
		msg := errorMessage(err)
		if msg == "" {
			m.notifier.Notify(LevelError, MsgDeleteFallback)
		} else {
			m.notifier.Notify(LevelError, "Gagal menghapus: "+msg)
		}
		return false
	}

	m.notifier.Notify(LevelSuccess, MsgAccountDeleted)
	if result != nil && result.Outcome == models.DeleteOutcomePartial {
		m.notifier.Notify(LevelWarning, result.Warning)
	}
	m.Close()
	if m.list != nil {
		m.list.Reset(ctx)
	}
	m.kpis.Refresh(ctx)
	return true
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
