package dto

import "github.com/shopspring/decimal"

// ImportFormat formato de archivo de importación.
type ImportFormat string

const (
	ImportCSV  ImportFormat = "csv"
	ImportJSON ImportFormat = "json"
)

// ImportRequest parámetros de una importación masiva sobre una tabla.
type ImportRequest struct {
	Table  string
	Path   string
	Format ImportFormat
}

// RowFailure falla aislada de una fila durante la importación.
type RowFailure struct {
	Line   int    `json:"linha"`
	ID     string `json:"id"`
	Reason string `json:"motivo"`
}

// ImportResult resumen de una importación. BatchID identifica el lote para
// correlacionar sus entradas de auditoría.
type ImportResult struct {
	BatchID  string       `json:"lote"`
	Inserted int          `json:"inseridos"`
	Updated  int          `json:"atualizados"`
	Failures []RowFailure `json:"falhas,omitempty"`
}

// MoveRequest traslado de una fila entre tablas. NewID opcional reemplaza el
// id en destino; Fill completa columnas del destino que el origen no trae o
// trae vacías (por ejemplo, obligatorias del destino).
type MoveRequest struct {
	FromTable string
	ToTable   string
	ID        string
	NewID     string
	Fill      map[string]string
}

// ColumnStat estadísticas de una columna numérica dentro de un grupo.
type ColumnStat struct {
	Column string
	Sum    decimal.Decimal
	Mean   decimal.Decimal
	Count  int
}

// GroupSummary estadísticas de las columnas de reporte para un grupo.
type GroupSummary struct {
	Name  string
	Stats []ColumnStat
}

// SummaryResult resumen estadístico por grupo de las columnas de reporte.
type SummaryResult struct {
	GroupBy GroupBy
	Groups  []GroupSummary
}

// ExportResult rutas producidas por una exportación completa.
type ExportResult struct {
	Dir          string
	TableFiles   []string
	Consolidated string
	ReportPDF    string
}

// MaintenanceResult desenlace de la corrida del script de mantenimiento.
type MaintenanceResult struct {
	Success  bool
	ExitCode int
	LogPath  string
	TimedOut bool
}
