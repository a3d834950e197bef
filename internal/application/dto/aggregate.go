package dto

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// GroupBy dimensión de agrupación de la serie mensual.
type GroupBy string

const (
	GroupByCompany GroupBy = "por_empresa"
	GroupByBank    GroupBy = "por_banco"
	GroupByAll     GroupBy = "tudo"
)

// Metric cantidad agregada por mes.
type Metric string

const (
	MetricPaid         Metric = "parcelas"
	MetricAmortization Metric = "amortizacao"
	MetricInterest     Metric = "juros"
)

// TotalGroup nombre del grupo único cuando se agrupa todo junto.
const TotalGroup = "TOTAL"

// ParseGroupBy valida una dimensión de agrupación textual.
func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(s); g {
	case GroupByCompany, GroupByBank, GroupByAll:
		return g, nil
	}
	return "", fmt.Errorf("agrupación %q desconocida; use %s, %s o %s",
		s, GroupByCompany, GroupByBank, GroupByAll)
}

// ParseMetric valida una métrica textual.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case MetricPaid, MetricAmortization, MetricInterest:
		return m, nil
	}
	return "", fmt.Errorf("métrica %q desconocida; use %s, %s o %s",
		s, MetricPaid, MetricAmortization, MetricInterest)
}

// AggregateRequest parámetros de una agregación mensual. El rango es
// semiabierto: [Start, End). Companies vacío incluye todas las empresas.
type AggregateRequest struct {
	Tables    []string
	Start     time.Time
	End       time.Time
	GroupBy   GroupBy
	Metric    Metric
	Companies []string
}

// MonthKey identifica un mes calendario.
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthOf proyecta una fecha a su mes calendario.
func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// Time devuelve el primer instante del mes en UTC.
func (k MonthKey) Time() time.Time {
	return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC)
}

// String formatea el mes como MM/AAAA.
func (k MonthKey) String() string {
	return k.Time().Format("01/2006")
}

// Before orden cronológico entre meses.
func (k MonthKey) Before(other MonthKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

// AggregateResult serie mensual agregada. Months es el eje temporal común a
// todos los grupos, ordenado cronológicamente; Groups está ordenado
// alfabéticamente.
type AggregateResult struct {
	Metric Metric
	Months []MonthKey
	Groups []string
	cells  map[MonthKey]map[string]decimal.Decimal
}

// NewAggregateResult construye un resultado vacío para la métrica dada.
func NewAggregateResult(metric Metric) *AggregateResult {
	return &AggregateResult{
		Metric: metric,
		cells:  make(map[MonthKey]map[string]decimal.Decimal),
	}
}

// Add acumula un valor en la celda (mes, grupo).
func (r *AggregateResult) Add(month MonthKey, group string, value decimal.Decimal) {
	row, ok := r.cells[month]
	if !ok {
		row = make(map[string]decimal.Decimal)
		r.cells[month] = row
	}
	row[group] = row[group].Add(value)
}

// Value devuelve la celda (mes, grupo); cero si el grupo no acumuló nada en
// ese mes.
func (r *AggregateResult) Value(month MonthKey, group string) decimal.Decimal {
	return r.cells[month][group]
}

// Series devuelve los valores del grupo alineados con Months, con ceros
// implícitos en los meses sin actividad.
func (r *AggregateResult) Series(group string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(r.Months))
	for i, m := range r.Months {
		out[i] = r.cells[m][group]
	}
	return out
}

// Finalize materializa los ejes Months y Groups a partir de las celdas
// acumuladas. Debe llamarse una vez terminada la acumulación.
func (r *AggregateResult) Finalize() {
	monthSet := make(map[MonthKey]struct{})
	groupSet := make(map[string]struct{})
	for m, row := range r.cells {
		monthSet[m] = struct{}{}
		for g := range row {
			groupSet[g] = struct{}{}
		}
	}
	r.Months = r.Months[:0]
	for m := range monthSet {
		r.Months = append(r.Months, m)
	}
	sort.Slice(r.Months, func(i, j int) bool { return r.Months[i].Before(r.Months[j]) })

	r.Groups = r.Groups[:0]
	for g := range groupSet {
		r.Groups = append(r.Groups, g)
	}
	sort.Strings(r.Groups)
}

// Empty informa si no se acumuló ninguna celda.
func (r *AggregateResult) Empty() bool {
	return len(r.cells) == 0
}
