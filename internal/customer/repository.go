// internal/customer/repository.go
package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"customer-onboarding/internal/common/database"
	"customer-onboarding/internal/models"

	"github.com/lib/pq"
)

var (
	ErrNotFound = errors.New("CUSTOMER_NOT_FOUND")
	ErrConflict = errors.New("CUSTOMER_CONFLICT")
)

const customerColumns = `id, name, email, phone, date_of_birth, national_id, risk_score`

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM customers WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("email lookup: %w", err)
	}
	return exists, nil
}

// Create inserts the customer and its addresses in one transaction. A unique
// email violation is reported as ErrConflict.
func (r *PostgresRepository) Create(ctx context.Context, app *models.CustomerApplication, riskScore int) (*models.Customer, error) {
	customer := &models.Customer{
		Name:        app.Name,
		Email:       app.Email,
		Phone:       app.Phone,
		DateOfBirth: app.DateOfBirth,
		NationalID:  app.NationalID,
		RiskScore:   riskScore,
		Addresses:   make([]models.CustomerAddress, 0, len(app.Addresses)),
	}

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO customers (name, email, phone, date_of_birth, national_id, risk_score)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			app.Name, app.Email,
			nullString(app.Phone), nullString(app.DateOfBirth), nullString(app.NationalID),
			riskScore,
		).Scan(&customer.ID)
		if err != nil {
			return err
		}

		for _, addr := range app.Addresses {
			stored := models.CustomerAddress{Address: addr}
			err := tx.QueryRowContext(ctx, `
				INSERT INTO addresses (street, city, state, zip_code, country, customer_id)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id`,
				addr.Street, addr.City, addr.State, addr.ZipCode, addr.Country, customer.ID,
			).Scan(&stored.ID)
			if err != nil {
				return err
			}
			customer.Addresses = append(customer.Addresses, stored)
		}
		return nil
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return nil, fmt.Errorf("insert customer: %w", err)
	}
	return customer, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Customer, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)

	customer, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("select customer: %w", err)
	}

	byCustomer, err := r.addresses(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	customer.Addresses = byCustomer[id]
	return customer, nil
}

// List returns customers ordered by id with their addresses.
func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]models.Customer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("select customers: %w", err)
	}
	defer rows.Close()

	customers := make([]models.Customer, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, *c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	if len(ids) == 0 {
		return customers, nil
	}

	byCustomer, err := r.addresses(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range customers {
		customers[i].Addresses = byCustomer[customers[i].ID]
	}
	return customers, nil
}

func (r *PostgresRepository) addresses(ctx context.Context, customerIDs []int64) (map[int64][]models.CustomerAddress, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, street, city, state, zip_code, country, customer_id
		FROM addresses
		WHERE customer_id = ANY($1)
		ORDER BY id`, pq.Array(customerIDs))
	if err != nil {
		return nil, fmt.Errorf("select addresses: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]models.CustomerAddress, len(customerIDs))
	for _, id := range customerIDs {
		out[id] = []models.CustomerAddress{}
	}
	for rows.Next() {
		var (
			a          models.CustomerAddress
			customerID int64
		)
		if err := rows.Scan(&a.ID, &a.Street, &a.City, &a.State, &a.ZipCode, &a.Country, &customerID); err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		out[customerID] = append(out[customerID], a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCustomer(s scanner) (*models.Customer, error) {
	var (
		c                      models.Customer
		phone, dob, nationalID sql.NullString
		riskScore              sql.NullInt64
	)
	if err := s.Scan(&c.ID, &c.Name, &c.Email, &phone, &dob, &nationalID, &riskScore); err != nil {
		return nil, err
	}
	c.Phone = stringPtr(phone)
	c.DateOfBirth = stringPtr(dob)
	c.NationalID = stringPtr(nationalID)
	c.RiskScore = int(riskScore.Int64)
	return &c, nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
