package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// ApplySchema crea las tablas si no existen. Idempotente.
func ApplySchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("aplicar esquema: %w", err)
	}
	return nil
}

// ResetSchema elimina todas las tablas y las vuelve a crear.
// Solo para entornos de desarrollo y el comando de seed.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	drop := `
		DROP TABLE IF EXISTS invoice_line_items;
		DROP TABLE IF EXISTS invoices;
		DROP TABLE IF EXISTS products;
		DROP TABLE IF EXISTS customers;
		DROP TABLE IF EXISTS users;`
	if _, err := pool.Exec(ctx, drop); err != nil {
		return fmt.Errorf("eliminar tablas: %w", err)
	}
	return ApplySchema(ctx, pool)
}
