// Package sqlite implementa la persistencia embebida del almacén de
// contratos sobre un archivo SQLite local. El modelo es de escritor único:
// un solo proceso muta la base; las lecturas pueden ser concurrentes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Client administra la conexión al archivo SQLite.
type Client struct {
	db   *sql.DB
	path string
}

// NewClient abre (o crea) la base en path y verifica la conexión.
func NewClient(ctx context.Context, path string) (*Client, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("crear directorio de datos: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("abrir base de datos: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("verificar base de datos: %w", err)
	}
	// Escritor único: una sola conexión evita SQLITE_BUSY entre goroutines.
	db.SetMaxOpenConns(1)
	return &Client{db: db, path: path}, nil
}

// DB expone la conexión subyacente.
func (c *Client) DB() *sql.DB { return c.db }

// Path devuelve la ruta del archivo de la base.
func (c *Client) Path() string { return c.path }

// Close cierra la conexión.
func (c *Client) Close() error { return c.db.Close() }

// Backup copia el archivo de la base a dir/AAAA-MM-DD/<hhmmss_nanos>.db y
// devuelve la ruta destino. Es una copia fría: se asume que no hay una
// escritura en curso (modelo de escritor único).
func (c *Client) Backup(dir string) (string, error) {
	now := time.Now()
	folder := filepath.Join(dir, now.Format("2006-01-02"))
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("crear directorio de backups: %w", err)
	}
	dst := filepath.Join(folder, fmt.Sprintf("%s_%09d.db", now.Format("150405"), now.Nanosecond()))

	src, err := os.Open(c.path)
	if err != nil {
		return "", fmt.Errorf("abrir base para backup: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("crear archivo de backup: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return "", fmt.Errorf("copiar base a %s: %w", dst, err)
	}
	return dst, nil
}
