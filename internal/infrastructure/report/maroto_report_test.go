package report_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/gestion-financiera/internal/application/dto"
	"github.com/jhoicas/gestion-financiera/internal/infrastructure/report"
)

func TestFormatAmount_SeparadoresPtBR(t *testing.T) {
	assert.Equal(t, "1.234,50", report.FormatAmount(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "0,00", report.FormatAmount(decimal.Zero))
}

func TestGenerate_MasGruposQueColumnasDeLaGrilla(t *testing.T) {
	// Con doce o más grupos una sola tabla no entra en la grilla de doce
	// columnas: los grupos deben repartirse en varias tablas.
	res := dto.NewAggregateResult(dto.MetricPaid)
	mes := dto.MonthKey{Year: 2024, Month: time.March}
	for i := 0; i < 12; i++ {
		res.Add(mes, fmt.Sprintf("Empresa%02d", i), decimal.NewFromInt(int64(i+1)))
	}
	res.Finalize()
	require.Len(t, res.Groups, 12)

	path := filepath.Join(t.TempDir(), "informe.pdf")
	gen := report.NewGenerator("Informe de prueba")

	require.NotPanics(t, func() {
		require.NoError(t, gen.Generate(path, []*dto.AggregateResult{res}))
	})

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestGenerate_ProduceUnPDF(t *testing.T) {
	res := dto.NewAggregateResult(dto.MetricPaid)
	res.Add(dto.MonthKey{Year: 2024, Month: time.March}, "ACME", decimal.RequireFromString("100.5"))
	res.Add(dto.MonthKey{Year: 2024, Month: time.April}, "Beta", decimal.NewFromInt(50))
	res.Finalize()

	empty := dto.NewAggregateResult(dto.MetricInterest)
	empty.Finalize()

	path := filepath.Join(t.TempDir(), "informe.pdf")
	gen := report.NewGenerator("Informe de prueba")

	require.NoError(t, gen.Generate(path, []*dto.AggregateResult{res, empty}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
