package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/bk-portal-api/internal/models"
)

const profileColumns = `id, name, email, role, phone, address, notify_email, created_at`

// ProfileRepository provides database access for account profiles.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new instance of ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByID returns a profile by identifier.
func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1 LIMIT 1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find profile by id: %w", err)
	}
	return &profile, nil
}

// List returns profiles matching the filter together with the total match count.
func (r *ProfileRepository) List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, int, error) {
	baseQuery := `FROM profiles WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d ESCAPE '\\' OR email ILIKE $%d ESCAPE '\\')", len(args)+1, len(args)+1))
		args = append(args, "%"+escapeLike(search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		models.SortCreatedAt: true,
		models.SortName:      true,
	}
	if !allowedSorts[sortBy] {
		sortBy = models.SortCreatedAt
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s NULLS FIRST, id ASC LIMIT %d OFFSET %d", profileColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var profiles []models.Profile
	if err := r.db.SelectContext(ctx, &profiles, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list profiles: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count profiles: %w", err)
	}

	return profiles, total, nil
}

// Count returns the number of profiles, optionally restricted to one role.
func (r *ProfileRepository) Count(ctx context.Context, role *models.UserRole) (int, error) {
	query := `SELECT COUNT(*) FROM profiles`
	var args []interface{}
	if role != nil {
		query += ` WHERE role = $1`
		args = append(args, *role)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return total, nil
}

// CountNotifySubscribers returns the number of profiles opted into email notifications.
func (r *ProfileRepository) CountNotifySubscribers(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM profiles WHERE notify_email = TRUE`
	var total int
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count notify subscribers: %w", err)
	}
	return total, nil
}

// Create inserts a new profile.
func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO profiles (id, name, email, role, phone, address, notify_email, created_at) VALUES (:id, :name, :email, :role, :phone, :address, :notify_email, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// UpdateRole changes only the role column.
func (r *ProfileRepository) UpdateRole(ctx context.Context, id string, role models.UserRole) error {
	const query = `UPDATE profiles SET role = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, role)
	if err != nil {
		return fmt.Errorf("update profile role: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateSelf writes the self-editable fields of a profile.
func (r *ProfileRepository) UpdateSelf(ctx context.Context, profile *models.Profile) error {
	const query = `UPDATE profiles SET name = :name, phone = :phone, address = :address, notify_email = :notify_email WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, profile)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes the profile row.
func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM profiles WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

// CreateAuditLog stores an audit log entry.
func (r *ProfileRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at) VALUES (:id, :user_id, :action, :resource, :resource_id, :old_values, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(raw string) string {
	return likeEscaper.Replace(raw)
}
