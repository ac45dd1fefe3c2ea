package cpostgres

import (
	"context"
	"errors"

	"comms-service/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrCustomerNotFound is returned when no customer matches a lookup.
var ErrCustomerNotFound = errors.New("customer not found")

type CustomerService interface {
	FindByPhone(ctx context.Context, phone string) (model.Customer, error)
	FindByAccountNumber(ctx context.Context, accountNumber string) (model.Customer, error)
}

type customer struct {
	pool *pgxpool.Pool
}

func NewCustomerService(pool *pgxpool.Pool) CustomerService {
	return &customer{
		pool: pool,
	}
}

func (r *customer) FindByPhone(ctx context.Context, phone string) (model.Customer, error) {
	query := `
		SELECT id, account_number, name, phone, email
		FROM customers
		WHERE phone = $1
		LIMIT 1
	`
	return r.scanOne(ctx, query, phone)
}

func (r *customer) FindByAccountNumber(ctx context.Context, accountNumber string) (model.Customer, error) {
	query := `
		SELECT id, account_number, name, phone, email
		FROM customers
		WHERE account_number = $1
		LIMIT 1
	`
	return r.scanOne(ctx, query, accountNumber)
}

func (r *customer) scanOne(ctx context.Context, query string, arg any) (model.Customer, error) {
	var c model.Customer
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&c.ID,
		&c.AccountNumber,
		&c.Name,
		&c.Phone,
		&c.Email,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Customer{}, ErrCustomerNotFound
	}
	if err != nil {
		return model.Customer{}, err
	}
	return c, nil
}
