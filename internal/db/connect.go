package db

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "github.com/go-sql-driver/mysql" // driver: mysql
	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:evaluaciones.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/evaluaciones?sslmode=disable"
		}
	case DriverMySQL:
		drvName = "mysql"
		if dsn == "" {
			dsn = "root@tcp(localhost:3306)/evaluaciones?parseTime=true"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// a single connection keeps in-memory databases shared
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema: %w", err)
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	for _, stmt := range schema(driver) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

var placeholder = regexp.MustCompile(`\$\d+`)

// Rebind rewrites $N placeholders for drivers that only understand "?".
// Queries must use each placeholder once and in order.
func Rebind(driver Driver, q string) string {
	if driver != DriverMySQL {
		return q
	}
	return placeholder.ReplaceAllString(q, "?")
}

func schema(driver Driver) []string {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	switch driver {
	case DriverPostgres:
		serial = "BIGSERIAL PRIMARY KEY"
	case DriverMySQL:
		serial = "BIGINT AUTO_INCREMENT PRIMARY KEY"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS empresas (
  id VARCHAR(64) PRIMARY KEY,
  nombre VARCHAR(191) NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS usuarios (
  id VARCHAR(64) PRIMARY KEY,
  username VARCHAR(191) NOT NULL UNIQUE,
  password_hash VARCHAR(100) NOT NULL,
  nombre_completo VARCHAR(191) NOT NULL,
  rol VARCHAR(32) NOT NULL,
  empresa_id VARCHAR(64) NULL REFERENCES empresas(id)
)`,
		`CREATE TABLE IF NOT EXISTS permisos (
  user_id VARCHAR(64) NOT NULL REFERENCES usuarios(id) ON DELETE CASCADE,
  tipo VARCHAR(32) NOT NULL,
  PRIMARY KEY (user_id, tipo)
)`,
		`CREATE TABLE IF NOT EXISTS bloqueos (
  user_id VARCHAR(64) PRIMARY KEY REFERENCES usuarios(id) ON DELETE CASCADE,
  motivo TEXT,
  bloqueado_por VARCHAR(64) NULL,
  fecha_bloqueo BIGINT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS evaluaciones (
  tipo VARCHAR(32) PRIMARY KEY,
  titulo VARCHAR(191) NOT NULL,
  template_json TEXT NOT NULL,
  updated_at BIGINT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS resultados (
  id VARCHAR(64) PRIMARY KEY,
  user_id VARCHAR(64) NOT NULL REFERENCES usuarios(id) ON DELETE CASCADE,
  tipo VARCHAR(32) NOT NULL,
  titulo VARCHAR(191) NOT NULL,
  puntuacion INTEGER NOT NULL,
  total_preguntas INTEGER NOT NULL,
  respuestas_correctas INTEGER NOT NULL,
  secciones_json TEXT NOT NULL,
  respuestas_json TEXT NOT NULL,
  created_at BIGINT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS event_log (
  seq ` + serial + `,
  site_id VARCHAR(64) NOT NULL,
  typ VARCHAR(64) NOT NULL,
  ref VARCHAR(64) NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
)`,
	}
}
