// seed aplica el esquema y carga datos iniciales de clientes y productos
// desde archivos CSV.
//
// Uso: go run ./cmd/seed [-reset] [-customers clientes.csv] [-products productos.csv]
//
// -reset elimina todas las tablas y las vuelve a crear (solo desarrollo).
// Los CSV pueden venir en UTF-8 o ISO-8859-1 (exportes viejos con tildes);
// la codificación se detecta por flag.
//
// Formato clientes.csv:  nombre,correo,segmento
// Formato productos.csv: nombre,categoria,precio
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/ignaciocastillo/erp-api/internal/domain/entity"
	"github.com/ignaciocastillo/erp-api/internal/infrastructure/postgres"
	"github.com/ignaciocastillo/erp-api/pkg/config"
)

func main() {
	reset := flag.Bool("reset", false, "eliminar todas las tablas y recrearlas")
	customersPath := flag.String("customers", "", "CSV de clientes (nombre,correo,segmento)")
	productsPath := flag.String("products", "", "CSV de productos (nombre,categoria,precio)")
	latin1 := flag.Bool("latin1", false, "leer los CSV como ISO-8859-1 en vez de UTF-8")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fail("cargar configuración: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fail("conexión a PostgreSQL: %v", err)
	}
	defer pool.Close()

	if *reset {
		if err := postgres.ResetSchema(ctx, pool); err != nil {
			fail("reset: %v", err)
		}
		fmt.Println("esquema recreado")
	} else {
		if err := postgres.ApplySchema(ctx, pool); err != nil {
			fail("aplicar esquema: %v", err)
		}
	}

	if *customersPath != "" {
		n, err := seedCustomers(pool, *customersPath, *latin1)
		if err != nil {
			fail("cargar clientes: %v", err)
		}
		fmt.Printf("clientes cargados: %d\n", n)
	}

	if *productsPath != "" {
		n, err := seedProducts(pool, *productsPath, *latin1)
		if err != nil {
			fail("cargar productos: %v", err)
		}
		fmt.Printf("productos cargados: %d\n", n)
	}
}

func seedCustomers(q postgres.Querier, path string, latin1 bool) (int, error) {
	rows, err := readCSV(path, latin1)
	if err != nil {
		return 0, err
	}
	customers, err := parseCustomers(rows)
	if err != nil {
		return 0, err
	}
	repo := postgres.NewCustomerRepository(q)
	for i, customer := range customers {
		if err := repo.Create(customer); err != nil {
			return i, fmt.Errorf("cliente %q: %w", customer.Name, err)
		}
	}
	return len(customers), nil
}

func seedProducts(q postgres.Querier, path string, latin1 bool) (int, error) {
	rows, err := readCSV(path, latin1)
	if err != nil {
		return 0, err
	}
	products, err := parseProducts(rows)
	if err != nil {
		return 0, err
	}
	repo := postgres.NewProductRepository(q)
	for i, product := range products {
		if err := repo.Create(product); err != nil {
			return i, fmt.Errorf("producto %q: %w", product.Name, err)
		}
	}
	return len(products), nil
}

// parseCustomers convierte filas CSV en clientes. Si la primera fila es una
// cabecera (la columna de correo no contiene '@') se salta.
func parseCustomers(rows [][]string) ([]*entity.Customer, error) {
	now := time.Now()
	out := make([]*entity.Customer, 0, len(rows))
	for i, row := range rows {
		if len(row) < 3 {
			return nil, fmt.Errorf("fila %d: se esperan 3 columnas (nombre,correo,segmento)", i+1)
		}
		email := strings.TrimSpace(row[1])
		if i == 0 && !strings.Contains(email, "@") {
			continue
		}
		out = append(out, &entity.Customer{
			Name:      strings.TrimSpace(row[0]),
			Email:     email,
			Segment:   strings.TrimSpace(row[2]),
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return out, nil
}

// parseProducts convierte filas CSV en productos. Si la primera fila es una
// cabecera (la columna de precio no parsea como decimal) se salta.
func parseProducts(rows [][]string) ([]*entity.Product, error) {
	now := time.Now()
	out := make([]*entity.Product, 0, len(rows))
	for i, row := range rows {
		if len(row) < 3 {
			return nil, fmt.Errorf("fila %d: se esperan 3 columnas (nombre,categoria,precio)", i+1)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(row[2]))
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, fmt.Errorf("fila %d: precio inválido %q", i+1, row[2])
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("fila %d: el precio no puede ser negativo", i+1)
		}
		out = append(out, &entity.Product{
			Name:      strings.TrimSpace(row[0]),
			Category:  strings.TrimSpace(row[1]),
			Price:     price,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return out, nil
}

// readCSV lee todas las filas del archivo. latin1 transforma desde
// ISO-8859-1. La detección de cabecera la hacen los parsers.
func readCSV(path string, latin1 bool) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if latin1 {
		r = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
