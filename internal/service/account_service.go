package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/bk-portal-api/internal/dto"
	"github.com/noah-isme/bk-portal-api/internal/models"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
	"github.com/noah-isme/bk-portal-api/pkg/export"
)

type accountRepository interface {
	List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, int, error)
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	Count(ctx context.Context, role *models.UserRole) (int, error)
	UpdateRole(ctx context.Context, id string, role models.UserRole) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Export formats supported by the roster export.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// ExportFile is a rendered roster ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// AccountService handles the account administration workflow.
type AccountService struct {
	repo      accountRepository
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	pageSize  int
}

// NewAccountService creates an instance of AccountService.
func NewAccountService(repo accountRepository, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, pageSize int) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	RegisterPortalValidations(validate)
	return &AccountService{
		repo:      repo,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		pageSize:  pageSize,
	}
}

// RegisterPortalValidations adds the portal specific validator tags.
func RegisterPortalValidations(validate *validator.Validate) {
	_ = validate.RegisterValidation("portal_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("info_category", func(fl validator.FieldLevel) bool {
		return models.InfoCategory(fl.Field().String()).Valid()
	})
}

// PageSize returns the default page size used by listings.
func (s *AccountService) PageSize() int {
	return s.pageSize
}

// List returns one page of profiles and pagination metadata.
func (s *AccountService) List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = s.pageSize
	}
	profiles, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to list accounts")
	}
	if profiles == nil {
		profiles = []models.Profile{}
	}
	return profiles, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a profile by ID.
func (s *AccountService) Get(ctx context.Context, id string) (*models.Profile, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "id is required")
	}
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to load account")
	}
	return profile, nil
}

// UpdateRole changes the role of one profile. No other field is touched.
func (s *AccountService) UpdateRole(ctx context.Context, id string, req dto.UpdateRoleRequest, actorID string, meta models.RequestMeta) (*models.Profile, error) {
	req.Role = models.UserRole(strings.ToLower(strings.TrimSpace(string(req.Role))))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid role payload")
	}

	profile, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	oldRole := profile.Role

	if err := s.repo.UpdateRole(ctx, id, req.Role); err != nil {
		s.metrics.RecordAccountEvent(EventRoleChange, "error")
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to update role")
	}
	s.metrics.RecordAccountEvent(EventRoleChange, "ok")
	profile.Role = req.Role

	oldPayload, _ := json.Marshal(map[string]interface{}{"role": oldRole})
	newPayload, _ := json.Marshal(map[string]interface{}{"role": req.Role})
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionRoleUpdate,
		Resource:   "profiles",
		ResourceID: &profile.ID,
		OldValues:  oldPayload,
		NewValues:  newPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record role update audit log", zap.Error(err))
	}

	return profile, nil
}

// Count returns a single counter; an empty or "all" role counts every profile.
func (s *AccountService) Count(ctx context.Context, rawRole string) (*dto.AccountCountResponse, error) {
	role, err := models.ParseRoleFilter(rawRole)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	count, err := s.repo.Count(ctx, role)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to count accounts")
	}
	label := models.RoleFilterAll
	if role != nil {
		label = string(*role)
	}
	return &dto.AccountCountResponse{Role: label, Count: count}, nil
}

// KPIs runs one count per metric concurrently. A failing counter is left nil.
func (s *AccountService) KPIs(ctx context.Context) dto.AccountKPIResponse {
	var (
		resp dto.AccountKPIResponse
		wg   sync.WaitGroup
	)
	targets := []struct {
		role *models.UserRole
		slot **int
	}{
		{nil, &resp.Total},
		{rolePtr(models.RoleStudent), &resp.Students},
		{rolePtr(models.RoleTeacher), &resp.Teachers},
		{rolePtr(models.RoleAdmin), &resp.Admins},
	}
	for _, target := range targets {
		target := target
		wg.Add(1)
		go func() {
			defer wg.Done()
			count, err := s.repo.Count(ctx, target.role)
			if err != nil {
				label := models.RoleFilterAll
				if target.role != nil {
					label = string(*target.role)
				}
				s.logger.Warn("account counter failed", zap.String("metric", label), zap.Error(err))
				return
			}
			*target.slot = &count
		}()
	}
	wg.Wait()
	return resp
}

// Export renders every profile matching the filter as CSV or PDF.
func (s *AccountService) Export(ctx context.Context, filter models.ProfileFilter, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	var rows []models.Profile
	filter.PageSize = 100
	for page := 1; ; page++ {
		filter.Page = page
		batch, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to load accounts for export")
		}
		rows = append(rows, batch...)
		if len(batch) == 0 || len(rows) >= total {
			break
		}
	}

	now := time.Now().UTC()
	table := rosterTable(rows)
	stamp := now.Format("20060102")
	switch format {
	case ExportFormatPDF:
		data, err := export.PDF(table, export.PDFOptions{Landscape: true, GeneratedAt: now})
		if err != nil {
			return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to render pdf")
		}
		return &ExportFile{Filename: fmt.Sprintf("akun_%s.pdf", stamp), ContentType: "application/pdf", Data: data}, nil
	default:
		data, err := export.CSV(table, export.CSVOptions{})
		if err != nil {
			return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to render csv")
		}
		return &ExportFile{Filename: fmt.Sprintf("akun_%s.csv", stamp), ContentType: "text/csv", Data: data}, nil
	}
}

func rosterTable(profiles []models.Profile) export.Table {
	table := export.Table{
		Title: "Daftar Akun",
		Columns: []export.Column{
			{Header: "Nama", Weight: 3},
			{Header: "Email", Weight: 4},
			{Header: "Peran", Weight: 1.5},
			{Header: "Telepon", Weight: 2},
			{Header: "Dibuat", Weight: 2},
		},
		Rows: make([][]string, 0, len(profiles)),
	}
	for _, p := range profiles {
		table.AddRow(orNA(p.Name), p.Email, string(p.Role), orNA(p.Phone), p.CreatedAt.Format("2006-01-02"))
	}
	return table
}

func orNA(value *string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return "N/A"
	}
	return *value
}

func rolePtr(role models.UserRole) *models.UserRole {
	return &role
}
