package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jhoicas/gestion-financiera/internal/domain"
	"github.com/jhoicas/gestion-financiera/internal/domain/entity"
	"github.com/jhoicas/gestion-financiera/internal/domain/repository"
)

// Asegura que TableRepo implementa repository.TableRepository.
var _ repository.TableRepository = (*TableRepo)(nil)

// TableRepo implementación del puerto TableRepository sobre SQLite.
// El esquema es dinámico: las columnas se descubren con PRAGMA table_info
// y el SQL se arma citando cada identificador.
type TableRepo struct {
	client *Client
}

// NewTableRepository construye el adaptador de persistencia de tablas.
func NewTableRepository(client *Client) *TableRepo {
	return &TableRepo{client: client}
}

// quoteIdent cita un identificador SQL duplicando las comillas internas.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ListTables devuelve las tablas de datos (excluye las internas de SQLite).
func (r *TableRepo) ListTables(ctx context.Context) ([]string, error) {
	const query = `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`
	rows, err := r.client.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listar tablas: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("leer nombre de tabla: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// Columns devuelve las columnas de la tabla en su orden de definición.
// Devuelve domain.ErrUnknownTable si la tabla no existe.
func (r *TableRepo) Columns(ctx context.Context, table string) ([]string, error) {
	query := fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdent(table))
	rows, err := r.client.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("columnas de %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("leer columna de %s: %w", table, err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("tabla %s: %w", table, domain.ErrUnknownTable)
	}
	return cols, nil
}

// CreateTable crea la tabla con el esquema por defecto de contratos.
// Todos los valores se guardan como texto normalizado; el id es la clave
// primaria textual.
func (r *TableRepo) CreateTable(ctx context.Context, name string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", quoteIdent(name))
	for i, col := range entity.DefaultColumns {
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString("\t")
		b.WriteString(quoteIdent(col))
		b.WriteString(" TEXT")
		if col == entity.ColumnID {
			b.WriteString(" PRIMARY KEY")
		}
	}
	b.WriteString("\n)")
	if _, err := r.client.db.ExecContext(ctx, b.String()); err != nil {
		return fmt.Errorf("crear tabla %s: %w", name, err)
	}
	return nil
}

// DropTable elimina la relación completa; inexistente no es error.
func (r *TableRepo) DropTable(ctx context.Context, name string) error {
	query := fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdent(name))
	if _, err := r.client.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("eliminar tabla %s: %w", name, err)
	}
	return nil
}

// HasID informa si la tabla contiene una fila con ese id.
func (r *TableRepo) HasID(ctx context.Context, table, id string) (bool, error) {
	query := fmt.Sprintf(`SELECT COUNT(1) FROM %s WHERE id = ?`, quoteIdent(table))
	var n int
	if err := r.client.db.QueryRowContext(ctx, query, id).Scan(&n); err != nil {
		return false, fmt.Errorf("buscar id en %s: %w", table, err)
	}
	return n > 0, nil
}

// Get devuelve la fila completa o nil si no existe.
func (r *TableRepo) Get(ctx context.Context, table, id string) (entity.Record, error) {
	query := fmt.Sprintf(`SELECT * FROM %s WHERE id = ?`, quoteIdent(table))
	rows, err := r.client.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("leer fila de %s: %w", table, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	rec, err := scanRecord(rows)
	if err != nil {
		return nil, fmt.Errorf("leer fila de %s: %w", table, err)
	}
	return rec, nil
}

// Fetch devuelve todas las filas de la tabla ordenadas por id.
func (r *TableRepo) Fetch(ctx context.Context, table string) ([]entity.Record, error) {
	query := fmt.Sprintf(`SELECT * FROM %s ORDER BY id`, quoteIdent(table))
	rows, err := r.client.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("leer tabla %s: %w", table, err)
	}
	defer rows.Close()

	var recs []entity.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("leer tabla %s: %w", table, err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// scanRecord materializa la fila actual como Record, con las columnas
// descubiertas del propio cursor.
func scanRecord(rows *sql.Rows) (entity.Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	values := make([]sql.NullString, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	rec := make(entity.Record, len(cols))
	for i, col := range cols {
		rec[col] = values[i].String
	}
	return rec, nil
}

// Insert escribe una fila nueva con las columnas reales de la tabla; las
// columnas ausentes del Record quedan vacías.
func (r *TableRepo) Insert(ctx context.Context, table string, rec entity.Record) error {
	cols, err := r.Columns(ctx, table)
	if err != nil {
		return err
	}
	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		quoted[i] = quoteIdent(col)
		placeholders[i] = "?"
		args[i] = rec[col]
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteIdent(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
	if _, err := r.client.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insertar en %s: %w", table, err)
	}
	return nil
}

// UpdateCell escribe una sola celda de la fila identificada por el id.
func (r *TableRepo) UpdateCell(ctx context.Context, table, column, value, id string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = ? WHERE id = ?`,
		quoteIdent(table), quoteIdent(column))
	if _, err := r.client.db.ExecContext(ctx, query, value, id); err != nil {
		return fmt.Errorf("actualizar %s.%s: %w", table, column, err)
	}
	return nil
}

// UpdateRow reescribe todas las columnas (salvo id) de la fila.
func (r *TableRepo) UpdateRow(ctx context.Context, table string, rec entity.Record) error {
	cols, err := r.Columns(ctx, table)
	if err != nil {
		return err
	}
	var sets []string
	var args []any
	for _, col := range cols {
		if col == entity.ColumnID {
			continue
		}
		sets = append(sets, quoteIdent(col)+" = ?")
		args = append(args, rec[col])
	}
	args = append(args, rec.ID())
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = ?`,
		quoteIdent(table), strings.Join(sets, ", "))
	if _, err := r.client.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("actualizar fila de %s: %w", table, err)
	}
	return nil
}

// Delete elimina la fila; inexistente es un no-op sin error.
func (r *TableRepo) Delete(ctx context.Context, table, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, quoteIdent(table))
	if _, err := r.client.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("borrar fila de %s: %w", table, err)
	}
	return nil
}
