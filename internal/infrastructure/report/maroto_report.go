// Package report genera el informe PDF mensual con maroto. El documento
// lleva una tabla por métrica: meses en las filas, grupos en las columnas y
// una columna de total.
package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jhoicas/gestion-financiera/internal/application/dto"
)

// Paleta del informe.
var (
	colorHeader    = &props.Color{Red: 15, Green: 80, Blue: 135}
	colorRowShade  = &props.Color{Red: 235, Green: 240, Blue: 247}
	colorWhiteText = &props.Color{Red: 255, Green: 255, Blue: 255}
)

var ptBR = message.NewPrinter(language.BrazilianPortuguese)

// FormatAmount formatea un monto con separadores pt-BR y dos decimales.
func FormatAmount(d decimal.Decimal) string {
	return ptBR.Sprintf("%.2f", d.InexactFloat64())
}

// Generator arma informes PDF de agregación mensual.
type Generator struct {
	title string
}

// NewGenerator crea el generador con el título de portada dado.
func NewGenerator(title string) *Generator {
	if title == "" {
		title = "Informe financiero mensual"
	}
	return &Generator{title: title}
}

// Generate escribe el PDF en path con una sección por resultado.
func (g *Generator) Generate(path string, results []*dto.AggregateResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("crear directorio del informe: %w", err)
	}

	cfg := config.NewBuilder().
		WithPageNumber().
		WithLeftMargin(10).
		WithTopMargin(12).
		WithRightMargin(10).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.titleRow())
	for _, res := range results {
		m.AddRows(g.metricRows(res)...)
	}

	doc, err := m.Generate()
	if err != nil {
		return fmt.Errorf("generar informe: %w", err)
	}
	if err := doc.Save(path); err != nil {
		return fmt.Errorf("guardar informe en %s: %w", path, err)
	}
	return nil
}

func (g *Generator) titleRow() core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New(g.title, props.Text{
				Size:  16,
				Style: fontstyle.Bold,
				Align: align.Center,
			}),
		),
	)
}

// maxGroupCols limita cuántos grupos entran en una misma tabla: la grilla de
// maroto tiene 12 columnas y hay que reservar la del mes y la del total.
const maxGroupCols = 10

// metricRows produce el encabezado de sección y las tablas mes × grupo de una
// métrica. Con más grupos que columnas disponibles, los grupos se reparten en
// varias tablas consecutivas.
func (g *Generator) metricRows(res *dto.AggregateResult) []core.Row {
	rows := []core.Row{
		row.New(10).Add(
			col.New(12).Add(
				text.New(metricLabel(res.Metric), props.Text{
					Size:  12,
					Style: fontstyle.Bold,
					Top:   2,
				}),
			),
		),
	}

	if len(res.Months) == 0 {
		rows = append(rows, row.New(8).Add(
			col.New(12).Add(text.New("Sin datos en el período", props.Text{
				Size:  9,
				Style: fontstyle.Italic,
			})),
		))
		return rows
	}

	for start := 0; start < len(res.Groups); start += maxGroupCols {
		end := start + maxGroupCols
		if end > len(res.Groups) {
			end = len(res.Groups)
		}
		rows = append(rows, groupTableRows(res, res.Groups[start:end])...)
	}
	return rows
}

// groupTableRows arma una tabla completa (encabezado más meses) para el
// subconjunto de grupos dado. El total de cada fila suma solo esos grupos.
func groupTableRows(res *dto.AggregateResult, groups []string) []core.Row {
	widths := columnWidths(len(groups) + 2) // mes + grupos + total

	header := row.New(8).WithStyle(&props.Cell{BackgroundColor: colorHeader})
	header.Add(headerCell("Mes", widths[0]))
	for i, grp := range groups {
		header.Add(headerCell(grp, widths[i+1]))
	}
	header.Add(headerCell("Total", widths[len(widths)-1]))
	rows := []core.Row{header}

	for i, month := range res.Months {
		r := row.New(7)
		if i%2 == 1 {
			r.WithStyle(&props.Cell{BackgroundColor: colorRowShade})
		}
		r.Add(bodyCell(month.String(), widths[0], align.Left))
		total := decimal.Zero
		for j, grp := range groups {
			v := res.Value(month, grp)
			total = total.Add(v)
			r.Add(bodyCell(FormatAmount(v), widths[j+1], align.Right))
		}
		r.Add(bodyCell(FormatAmount(total), widths[len(widths)-1], align.Right))
		rows = append(rows, r)
	}
	return rows
}

func headerCell(label string, width int) core.Col {
	return col.New(width).Add(text.New(label, props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: colorWhiteText,
	}))
}

func bodyCell(value string, width int, a align.Type) core.Col {
	return col.New(width).Add(text.New(value, props.Text{
		Size:  8,
		Align: a,
	}))
}

// columnWidths reparte las 12 columnas de la grilla de maroto entre n celdas,
// dando el sobrante a la primera (la del mes).
func columnWidths(n int) []int {
	if n <= 0 {
		return nil
	}
	if n > 12 {
		n = 12
	}
	base := 12 / n
	rest := 12 % n
	widths := make([]int, n)
	for i := range widths {
		widths[i] = base
	}
	widths[0] += rest
	return widths
}

func metricLabel(m dto.Metric) string {
	switch m {
	case dto.MetricPaid:
		return "Parcelas pagadas por mes"
	case dto.MetricAmortization:
		return "Amortización por mes"
	case dto.MetricInterest:
		return "Intereses por mes"
	default:
		return string(m)
	}
}
