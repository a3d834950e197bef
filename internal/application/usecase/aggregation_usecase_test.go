package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/gestion-financiera/internal/application/dto"
	"github.com/jhoicas/gestion-financiera/internal/application/usecase"
	"github.com/jhoicas/gestion-financiera/internal/domain/entity"
)

func newAggEnv(t *testing.T) (*env, *usecase.AggregationUseCase) {
	t.Helper()
	e := newEnv(t)
	return e, usecase.NewAggregationUseCase(e.repo, e.policies)
}

func seedContracts(t *testing.T, e *env) {
	t.Helper()
	mustCreateTable(t, e, "BancoX")
	mustCreateTable(t, e, "BancoY")

	mustInsert(t, e, "BancoX", entity.Record{
		"id": "A1",
		"tuplas": "[(100.5, '01-03-2024', 'ACME', 'BancoX', 1, 20.5, 80), " +
			"(100.5, '01-04-2024', 'ACME', 'BancoX', 2, 15.5, 85)]",
	})
	mustInsert(t, e, "BancoX", entity.Record{
		"id":     "A2",
		"tuplas": "[(50, '15-03-2024', 'Beta', 'BancoX', 1, 10, 40)]",
	})
	mustInsert(t, e, "BancoY", entity.Record{
		"id":     "B1",
		"tuplas": "[(200, '20-04-2024', 'ACME', 'BancoY', 1, 50, 150)]",
	})
	// Cronograma malformado: no aporta y no rompe la agregación.
	mustInsert(t, e, "BancoY", entity.Record{"id": "B2", "tuplas": "nan"})
}

func TestAggregate_PorEmpresaConCerosImplicitos(t *testing.T) {
	e, agg := newAggEnv(t)
	seedContracts(t, e)

	res, err := agg.Aggregate(context.Background(), dto.AggregateRequest{
		Tables:  []string{"BancoX", "BancoY"},
		GroupBy: dto.GroupByCompany,
		Metric:  dto.MetricPaid,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"ACME", "Beta"}, res.Groups)
	require.Len(t, res.Months, 2) // mar y abr 2024

	mar := dto.MonthKey{Year: 2024, Month: time.March}
	abr := dto.MonthKey{Year: 2024, Month: time.April}
	assert.True(t, res.Value(mar, "ACME").Equal(decimal.RequireFromString("100.5")))
	assert.True(t, res.Value(abr, "ACME").Equal(decimal.RequireFromString("300.5")))
	assert.True(t, res.Value(mar, "Beta").Equal(decimal.NewFromInt(50)))

	// Beta no pagó nada en abril: la serie lleva el cero implícito.
	serie := res.Series("Beta")
	require.Len(t, serie, 2)
	assert.True(t, serie[1].IsZero())
}

func TestAggregate_PorBancoYTotal(t *testing.T) {
	e, agg := newAggEnv(t)
	seedContracts(t, e)
	ctx := context.Background()

	porBanco, err := agg.Aggregate(ctx, dto.AggregateRequest{
		Tables:  []string{"BancoX", "BancoY"},
		GroupBy: dto.GroupByBank,
		Metric:  dto.MetricPaid,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"BancoX", "BancoY"}, porBanco.Groups)

	total, err := agg.Aggregate(ctx, dto.AggregateRequest{
		Tables:  []string{"BancoX", "BancoY"},
		GroupBy: dto.GroupByAll,
		Metric:  dto.MetricPaid,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{dto.TotalGroup}, total.Groups)

	abr := dto.MonthKey{Year: 2024, Month: time.April}
	assert.True(t, total.Value(abr, dto.TotalGroup).Equal(decimal.RequireFromString("300.5")))
}

func TestAggregate_InteresSiempreDerivado(t *testing.T) {
	e, agg := newAggEnv(t)
	mustCreateTable(t, e, "BancoX")
	// El campo juros almacenado (99) no coincide con pago − amortización.
	mustInsert(t, e, "BancoX", entity.Record{
		"id":     "A1",
		"tuplas": "[(100, '01-03-2024', 'ACME', 'BancoX', 1, 99, 80)]",
	})

	res, err := agg.Aggregate(context.Background(), dto.AggregateRequest{
		Tables:  []string{"BancoX"},
		GroupBy: dto.GroupByAll,
		Metric:  dto.MetricInterest,
	})
	require.NoError(t, err)

	mar := dto.MonthKey{Year: 2024, Month: time.March}
	assert.True(t, res.Value(mar, dto.TotalGroup).Equal(decimal.NewFromInt(20)),
		"el interés se deriva como pago menos amortización, ignorando el campo almacenado")
}

func TestAggregate_RangoSemiabiertoYFiltroDeEmpresas(t *testing.T) {
	e, agg := newAggEnv(t)
	seedContracts(t, e)

	res, err := agg.Aggregate(context.Background(), dto.AggregateRequest{
		Tables:    []string{"BancoX", "BancoY"},
		Start:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		GroupBy:   dto.GroupByCompany,
		Metric:    dto.MetricPaid,
		Companies: []string{"ACME"},
	})
	require.NoError(t, err)

	// Solo marzo entra ([inicio, fin)) y solo ACME.
	assert.Equal(t, []string{"ACME"}, res.Groups)
	require.Len(t, res.Months, 1)
	assert.Equal(t, dto.MonthKey{Year: 2024, Month: time.March}, res.Months[0])
}

func TestCompaniesAndRange(t *testing.T) {
	e, agg := newAggEnv(t)
	seedContracts(t, e)

	companies, min, max, err := agg.CompaniesAndRange(context.Background(),
		[]string{"BancoX", "BancoY"})
	require.NoError(t, err)

	assert.Equal(t, []string{"ACME", "Beta"}, companies)
	assert.Equal(t, "01-03-2024", min.Format("02-01-2006"))
	assert.Equal(t, "20-04-2024", max.Format("02-01-2006"))
}

func TestSummary_ToleraComaDecimal(t *testing.T) {
	e, agg := newAggEnv(t)
	mustCreateTable(t, e, "BancoX")
	mustInsert(t, e, "BancoX", entity.Record{
		"id": "A1", "empresa": "ACME", "valor_adquirido": "1000.50",
	})
	mustInsert(t, e, "BancoX", entity.Record{
		"id": "A2", "empresa": "ACME", "valor_adquirido": "499,50",
	})
	mustInsert(t, e, "BancoX", entity.Record{
		"id": "A3", "empresa": "ACME", "valor_adquirido": "sin dato",
	})

	res, err := agg.Summary(context.Background(), []string{"BancoX"}, dto.GroupByCompany)
	require.NoError(t, err)

	require.Len(t, res.Groups, 1)
	require.NotEmpty(t, res.Groups[0].Stats)
	var stat *dto.ColumnStat
	for i := range res.Groups[0].Stats {
		if res.Groups[0].Stats[i].Column == "valor_adquirido" {
			stat = &res.Groups[0].Stats[i]
		}
	}
	require.NotNil(t, stat)
	assert.Equal(t, 2, stat.Count, "el valor no numérico no cuenta")
	assert.True(t, stat.Sum.Equal(decimal.NewFromInt(1500)))
	assert.True(t, stat.Mean.Equal(decimal.NewFromInt(750)))
}
