package entity

// Columnas del esquema por defecto de una tabla de contratos. Todas las
// tablas creadas por la aplicación comparten esta forma; el id es la clave
// primaria textual y "tuplas" guarda el cronograma serializado de parcelas.
const (
	ColumnID                = "id"
	ColumnDocument          = "documento"
	ColumnCompany           = "empresa"
	ColumnPrincipal         = "valor_adquirido"
	ColumnInstallmentCount  = "numero_parcelas"
	ColumnStartDate         = "data_inicio"
	ColumnEndDate           = "data_fim"
	ColumnAnnualRate        = "juros_anual"
	ColumnMonthlyRate       = "juros_mensal"
	ColumnAutoInstallment   = "parcela_automatica"
	ColumnInstallmentsText  = "parcelas"
	ColumnCalcType          = "tipo_calculo"
	ColumnInstallmentType   = "tipo_parcela"
	ColumnBalance           = "saldo_devedor"
	ColumnBalanceWithFuture = "saldo_devedor_com_juros"
	ColumnSchedule          = "tuplas"
)

// DefaultColumns es el orden canónico de columnas del esquema por defecto.
var DefaultColumns = []string{
	ColumnID,
	ColumnDocument,
	ColumnCompany,
	ColumnPrincipal,
	ColumnInstallmentCount,
	ColumnStartDate,
	ColumnEndDate,
	ColumnAnnualRate,
	ColumnMonthlyRate,
	ColumnAutoInstallment,
	ColumnInstallmentsText,
	ColumnCalcType,
	ColumnInstallmentType,
	ColumnBalance,
	ColumnBalanceWithFuture,
	ColumnSchedule,
}

// Record es una fila: columna → valor canónico en texto. Los campos
// numéricos y de fecha también se almacenan como texto normalizado.
type Record map[string]string

// ID devuelve la clave primaria de la fila ("" si no está presente).
func (r Record) ID() string { return r[ColumnID] }

// Clone devuelve una copia independiente de la fila.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
