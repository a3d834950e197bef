package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/gestion-financiera/internal/application/dto"
	"github.com/jhoicas/gestion-financiera/internal/domain/entity"
	"github.com/jhoicas/gestion-financiera/internal/domain/policy"
	"github.com/jhoicas/gestion-financiera/internal/domain/repository"
	"github.com/jhoicas/gestion-financiera/internal/domain/schedule"
)

// AggregationUseCase construye las series mensuales de parcelas a partir de
// los cronogramas embebidos en los contratos. Solo lee: no valida ni audita.
type AggregationUseCase struct {
	tables   repository.TableRepository
	policies *policy.Store
}

// NewAggregationUseCase construye el caso de uso de agregación.
func NewAggregationUseCase(tables repository.TableRepository, policies *policy.Store) *AggregationUseCase {
	return &AggregationUseCase{tables: tables, policies: policies}
}

// Aggregate acumula la métrica pedida por mes calendario y grupo. El rango
// [Start, End) es semiabierto; un extremo cero no acota por ese lado. Las
// parcelas con cronograma malformado simplemente no aportan.
func (uc *AggregationUseCase) Aggregate(ctx context.Context, req dto.AggregateRequest) (*dto.AggregateResult, error) {
	companies := toSet(req.Companies)
	result := dto.NewAggregateResult(req.Metric)

	for _, table := range req.Tables {
		recs, err := uc.tables.Fetch(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("agregar tabla %s: %w", table, err)
		}
		for _, rec := range recs {
			for _, e := range schedule.Decode(rec[entity.ColumnSchedule]) {
				if !inRange(e.Date, req.Start, req.End) {
					continue
				}
				if len(companies) > 0 {
					if _, ok := companies[e.Company]; !ok {
						continue
					}
				}
				result.Add(dto.MonthOf(e.Date), groupKey(req.GroupBy, table, e), metricValue(req.Metric, e))
			}
		}
	}
	result.Finalize()
	return result, nil
}

// groupKey elige la dimensión de la parcela según la agrupación pedida.
// Cada tabla representa un banco: agrupar por banco es agrupar por tabla.
func groupKey(g dto.GroupBy, table string, e schedule.Entry) string {
	switch g {
	case dto.GroupByCompany:
		return e.Company
	case dto.GroupByBank:
		return table
	default:
		return dto.TotalGroup
	}
}

// metricValue extrae la cantidad de la parcela. El interés se deriva siempre
// como valor pago menos amortización; el campo almacenado no se usa.
func metricValue(m dto.Metric, e schedule.Entry) decimal.Decimal {
	switch m {
	case dto.MetricAmortization:
		return e.Amortization
	case dto.MetricInterest:
		return e.DerivedInterest()
	default:
		return e.AmountPaid
	}
}

func inRange(t, start, end time.Time) bool {
	if !start.IsZero() && t.Before(start) {
		return false
	}
	if !end.IsZero() && !t.Before(end) {
		return false
	}
	return true
}

// CompaniesAndRange recorre los cronogramas de las tablas y devuelve las
// empresas distintas (ordenadas) junto con la fecha mínima y máxima
// observadas. Sirve para precargar los filtros de una consulta.
func (uc *AggregationUseCase) CompaniesAndRange(ctx context.Context, tables []string) ([]string, time.Time, time.Time, error) {
	companySet := map[string]struct{}{}
	var min, max time.Time

	for _, table := range tables {
		recs, err := uc.tables.Fetch(ctx, table)
		if err != nil {
			return nil, time.Time{}, time.Time{}, fmt.Errorf("explorar tabla %s: %w", table, err)
		}
		for _, rec := range recs {
			for _, e := range schedule.Decode(rec[entity.ColumnSchedule]) {
				if e.Company != "" {
					companySet[e.Company] = struct{}{}
				}
				if min.IsZero() || e.Date.Before(min) {
					min = e.Date
				}
				if max.IsZero() || e.Date.After(max) {
					max = e.Date
				}
			}
		}
	}

	companies := make([]string, 0, len(companySet))
	for c := range companySet {
		companies = append(companies, c)
	}
	sort.Strings(companies)
	return companies, min, max, nil
}

// Summary calcula suma y media de las columnas de reporte numéricas,
// agrupando las filas por empresa, por tabla (banco) o todas juntas. Los
// valores con coma decimal se toleran normalizándolos a punto; el resto de
// valores no numéricos simplemente no cuenta.
func (uc *AggregationUseCase) Summary(ctx context.Context, tables []string, groupBy dto.GroupBy) (*dto.SummaryResult, error) {
	reportCols := uc.policies.ReportColumns(numericDefaultColumns())

	type acc struct {
		sum   decimal.Decimal
		count int
	}
	groups := map[string]map[string]*acc{}

	for _, table := range tables {
		recs, err := uc.tables.Fetch(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("resumir tabla %s: %w", table, err)
		}
		for _, rec := range recs {
			var key string
			switch groupBy {
			case dto.GroupByCompany:
				key = rec[entity.ColumnCompany]
			case dto.GroupByBank:
				key = table
			default:
				key = dto.TotalGroup
			}
			byCol, ok := groups[key]
			if !ok {
				byCol = map[string]*acc{}
				groups[key] = byCol
			}
			for _, col := range reportCols {
				v, ok := parseLenientDecimal(rec[col])
				if !ok {
					continue
				}
				a, ok := byCol[col]
				if !ok {
					a = &acc{}
					byCol[col] = a
				}
				a.sum = a.sum.Add(v)
				a.count++
			}
		}
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	res := &dto.SummaryResult{GroupBy: groupBy}
	for _, name := range names {
		gs := dto.GroupSummary{Name: name}
		for _, col := range reportCols {
			a, ok := groups[name][col]
			if !ok || a.count == 0 {
				continue
			}
			gs.Stats = append(gs.Stats, dto.ColumnStat{
				Column: col,
				Sum:    a.sum,
				Mean:   a.sum.Div(decimal.NewFromInt(int64(a.count))).Round(2),
				Count:  a.count,
			})
		}
		res.Groups = append(res.Groups, gs)
	}
	return res, nil
}

// numericDefaultColumns son las columnas del esquema por defecto con
// contenido monetario o de tasa, usadas cuando no hay selección de reporte.
func numericDefaultColumns() []string {
	return []string{
		entity.ColumnPrincipal,
		entity.ColumnAnnualRate,
		entity.ColumnMonthlyRate,
		entity.ColumnBalance,
		entity.ColumnBalanceWithFuture,
	}
}

// parseLenientDecimal interpreta un monto tolerando la coma decimal.
func parseLenientDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func toSet(list []string) map[string]struct{} {
	if len(list) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(list))
	for _, v := range list {
		set[v] = struct{}{}
	}
	return set
}
