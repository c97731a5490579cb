package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/lalithlochan/returns-notifier/internal/complaint"
)

// Repository reads the reseller directory: sellers, contractors, employees,
// status names and per-reseller notification settings. Absent rows are
// reported as (nil, nil) or an empty value, never as an error.
type Repository struct {
	db     *DB
	logger *zap.Logger
}

// NewRepository creates a new directory repository
func NewRepository(db *DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Seller retrieves a reseller by ID
func (r *Repository) Seller(ctx context.Context, id int64) (*complaint.Seller, error) {
	query := `
		SELECT id, name, locale
		FROM sellers
		WHERE id = $1
	`

	var row sellerRow
	err := r.db.Pool().QueryRow(ctx, query, id).Scan(&row.ID, &row.Name, &row.Locale)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to get seller", zap.Error(err), zap.Int64("seller_id", id))
		return nil, fmt.Errorf("query seller: %w", err)
	}

	return row.toDomain(), nil
}

// Contractor retrieves a contractor of any type by ID
func (r *Repository) Contractor(ctx context.Context, id int64) (*complaint.Contractor, error) {
	query := `
		SELECT
			id, seller_id, type, name,
			first_name, last_name, email, mobile
		FROM contractors
		WHERE id = $1
	`

	var row contractorRow
	err := r.db.Pool().QueryRow(ctx, query, id).Scan(
		&row.ID,
		&row.SellerID,
		&row.Type,
		&row.Name,
		&row.FirstName,
		&row.LastName,
		&row.Email,
		&row.Mobile,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to get contractor", zap.Error(err), zap.Int64("contractor_id", id))
		return nil, fmt.Errorf("query contractor: %w", err)
	}

	return row.toDomain(), nil
}

// Employee retrieves a staff member by ID
func (r *Repository) Employee(ctx context.Context, id int64) (*complaint.Employee, error) {
	query := `
		SELECT id, first_name, last_name
		FROM employees
		WHERE id = $1
	`

	var row employeeRow
	err := r.db.Pool().QueryRow(ctx, query, id).Scan(&row.ID, &row.FirstName, &row.LastName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to get employee", zap.Error(err), zap.Int64("employee_id", id))
		return nil, fmt.Errorf("query employee: %w", err)
	}

	return row.toDomain(), nil
}

// StatusName returns the display name of a return status code
func (r *Repository) StatusName(ctx context.Context, code int64) (string, error) {
	var name string
	err := r.db.Pool().QueryRow(ctx, `SELECT name FROM return_statuses WHERE code = $1`, code).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("status %d: %w", code, ErrStatusNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("query status name: %w", err)
	}
	return name, nil
}

// SenderEmail returns the configured "from" address of a reseller, or ""
func (r *Repository) SenderEmail(ctx context.Context, resellerID int64) (string, error) {
	var email *string
	err := r.db.Pool().QueryRow(ctx,
		`SELECT sender_email FROM reseller_settings WHERE reseller_id = $1`,
		resellerID,
	).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query sender email: %w", err)
	}
	return deref(email), nil
}

// RecipientEmails lists the staff addresses subscribed to a permit
func (r *Repository) RecipientEmails(ctx context.Context, resellerID int64, permit string) ([]string, error) {
	query := `
		SELECT email
		FROM reseller_recipients
		WHERE reseller_id = $1 AND permit = $2
		ORDER BY id
	`

	rows, err := r.db.Pool().Query(ctx, query, resellerID, permit)
	if err != nil {
		return nil, fmt.Errorf("query recipients: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		if email != "" {
			emails = append(emails, email)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipients: %w", err)
	}

	return emails, nil
}

// ResellerLocale returns the seller's locale, or "" when unset or unknown
func (r *Repository) ResellerLocale(ctx context.Context, resellerID int64) (string, error) {
	var locale *string
	err := r.db.Pool().QueryRow(ctx, `SELECT locale FROM sellers WHERE id = $1`, resellerID).Scan(&locale)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query reseller locale: %w", err)
	}
	return deref(locale), nil
}
