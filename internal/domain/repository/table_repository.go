package repository

import (
	"context"

	"github.com/jhoicas/gestion-financiera/internal/domain/entity"
)

// TableRepository es el puerto de persistencia sobre las relaciones con
// esquema dinámico. Las operaciones de escritura no validan ni auditan:
// de eso se encargan los casos de uso.
type TableRepository interface {
	// ListTables devuelve los nombres de las tablas de datos existentes.
	ListTables(ctx context.Context) ([]string, error)
	// Columns devuelve las columnas de la tabla en su orden de definición.
	Columns(ctx context.Context, table string) ([]string, error)
	// CreateTable crea una tabla con el esquema por defecto de contratos.
	CreateTable(ctx context.Context, name string) error
	// DropTable elimina la relación completa. Inexistente no es error.
	DropTable(ctx context.Context, name string) error

	// HasID informa si la tabla ya contiene una fila con ese id.
	HasID(ctx context.Context, table, id string) (bool, error)
	// Get devuelve la fila completa o nil si no existe.
	Get(ctx context.Context, table, id string) (entity.Record, error)
	// Fetch devuelve todas las filas de la tabla.
	Fetch(ctx context.Context, table string) ([]entity.Record, error)

	// Insert escribe una fila nueva.
	Insert(ctx context.Context, table string, rec entity.Record) error
	// UpdateCell escribe una sola celda.
	UpdateCell(ctx context.Context, table, column, value, id string) error
	// UpdateRow reescribe todas las columnas de la fila identificada por el id.
	UpdateRow(ctx context.Context, table string, rec entity.Record) error
	// Delete elimina la fila; inexistente es un no-op sin error.
	Delete(ctx context.Context, table, id string) error
}
