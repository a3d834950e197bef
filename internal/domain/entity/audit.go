package entity

// AuditAction identifica el tipo de mutación registrada.
type AuditAction string

const (
	ActionInsert       AuditAction = "INSERT"
	ActionUpdate       AuditAction = "UPDATE"
	ActionDelete       AuditAction = "DELETE"
	ActionImportInsert AuditAction = "IMPORT_INSERT"
	ActionImportUpdate AuditAction = "IMPORT_UPDATE"
	ActionDropTable    AuditAction = "DROP_TABLE"
)

// AuditTimeLayout es el formato del campo timestamp en el documento persistido.
const AuditTimeLayout = "2006-01-02 15:04:05"

// AuditEntry es el documento inmutable que describe exactamente una mutación.
// Los nombres de campo en el JSON conservan el formato histórico de los logs
// (tabela, acao, usuario...), de modo que los archivos existentes y los nuevos
// sean legibles por las mismas herramientas.
//
// OldValue es un string en los UPDATE y la fila completa (Record) en los
// DELETE; por eso su tipo es any.
type AuditEntry struct {
	Timestamp string      `json:"timestamp"`
	Table     string      `json:"tabela"`
	RowID     string      `json:"rowid,omitempty"`
	Action    AuditAction `json:"acao"`
	Column    string      `json:"coluna,omitempty"`
	OldValue  any         `json:"valor_antigo,omitempty"`
	NewValue  string      `json:"valor_novo,omitempty"`
	Actor     string      `json:"usuario"`
	Details   Record      `json:"detalhes,omitempty"`
}
