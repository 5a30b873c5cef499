// internal/risk/blacklist/repository.go
package blacklist

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"customer-onboarding/internal/common/errors"
	"customer-onboarding/internal/common/logger"
	"customer-onboarding/internal/models"
)

// Repository matches applications against the blacklist table and stores new
// entries.
type Repository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewRepository(db *sql.DB, log logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "blacklist"}),
	}
}

// IsBlacklisted reports whether a stored record shares the application's name
// and at least one of email, phone or date of birth. Phone and date of birth
// are only compared when the application supplies them.
func (r *Repository) IsBlacklisted(ctx context.Context, app *models.CustomerApplication) (bool, error) {
	query, args := buildMatchQuery(app)

	var matched bool
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&matched); err != nil {
		r.logger.Error("blacklist lookup failed", map[string]interface{}{
			"error": err,
		})
		return false, errors.NewBlacklistCheckFailedError(err)
	}

	if matched {
		r.logger.Info("blacklist match", map[string]interface{}{
			"email": app.Email,
		})
	}
	return matched, nil
}

func buildMatchQuery(app *models.CustomerApplication) (string, []interface{}) {
	args := []interface{}{app.Name, app.Email}
	conditions := []string{"email = $2"}

	if app.HasPhone() {
		args = append(args, *app.Phone)
		conditions = append(conditions, fmt.Sprintf("phone = $%d", len(args)))
	}
	if app.HasDateOfBirth() {
		args = append(args, *app.DateOfBirth)
		conditions = append(conditions, fmt.Sprintf("date_of_birth = $%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT EXISTS(
			SELECT 1 FROM blacklist
			WHERE name = $1 AND (%s)
		)`, strings.Join(conditions, " OR "))

	return query, args
}

// Create inserts a blacklist entry and returns it with its id.
func (r *Repository) Create(ctx context.Context, record *models.BlacklistRecord) (*models.BlacklistRecord, error) {
	out := *record
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO blacklist (name, email, phone, date_of_birth)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		record.Name,
		nullable(record.Email),
		nullable(record.Phone),
		nullable(record.DateOfBirth),
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	r.logger.Info("blacklist entry created", map[string]interface{}{
		"blacklistId": out.ID,
	})
	return &out, nil
}

func nullable(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
