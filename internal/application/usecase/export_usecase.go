package usecase

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jhoicas/gestion-financiera/internal/application/dto"
	"github.com/jhoicas/gestion-financiera/internal/domain/entity"
	"github.com/jhoicas/gestion-financiera/internal/infrastructure/report"
	"github.com/jhoicas/gestion-financiera/pkg/logger"
)

// originColumn es la columna sintética del archivo consolidado que indica de
// qué tabla salió cada fila.
const originColumn = "__tabela_origem"

// Backupper produce una copia fría del almacén.
type Backupper interface {
	Backup(dir string) (string, error)
}

// ExportUseCase vuelca todas las tablas a un directorio con sello de tiempo:
// un CSV y un JSON por tabla, un consolidado con la tabla de origen de cada
// fila y el informe PDF de series mensuales.
type ExportUseCase struct {
	records     *RecordUseCase
	aggregation *AggregationUseCase
	reports     *report.Generator
	backup      Backupper
	log         *logger.Logger
}

// NewExportUseCase construye el caso de uso de exportación.
func NewExportUseCase(
	records *RecordUseCase,
	aggregation *AggregationUseCase,
	reports *report.Generator,
	backup Backupper,
	log *logger.Logger,
) *ExportUseCase {
	return &ExportUseCase{
		records:     records,
		aggregation: aggregation,
		reports:     reports,
		backup:      backup,
		log:         log,
	}
}

// Export vuelca todo al subdirectorio <baseDir>/<AAAA-MM-DD_HHMMSS>/.
func (uc *ExportUseCase) Export(ctx context.Context, baseDir string) (*dto.ExportResult, error) {
	dir := filepath.Join(baseDir, time.Now().Format("2006-01-02_150405"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("crear directorio de exportación: %w", err)
	}

	tables, err := uc.records.Tables(ctx)
	if err != nil {
		return nil, err
	}

	result := &dto.ExportResult{Dir: dir}
	var consolidated []entity.Record

	for _, table := range tables {
		recs, err := uc.records.Rows(ctx, table)
		if err != nil {
			return nil, err
		}
		cols, err := uc.records.Columns(ctx, table)
		if err != nil {
			return nil, err
		}

		csvPath := filepath.Join(dir, table+".csv")
		if err := writeCSV(csvPath, cols, recs); err != nil {
			return nil, err
		}
		jsonPath := filepath.Join(dir, table+".json")
		if err := writeJSON(jsonPath, recs); err != nil {
			return nil, err
		}
		result.TableFiles = append(result.TableFiles, csvPath, jsonPath)

		for _, rec := range recs {
			row := rec.Clone()
			row[originColumn] = table
			consolidated = append(consolidated, row)
		}
	}

	consolidatedPath := filepath.Join(dir, "consolidado.csv")
	consolidatedCols := append([]string{originColumn}, entity.DefaultColumns...)
	if err := writeCSV(consolidatedPath, consolidatedCols, consolidated); err != nil {
		return nil, err
	}
	result.Consolidated = consolidatedPath

	pdfPath := filepath.Join(dir, "informe.pdf")
	if err := uc.writeReport(ctx, pdfPath, tables); err != nil {
		return nil, err
	}
	result.ReportPDF = pdfPath

	uc.log.Info().Str("dir", dir).Int("tablas", len(tables)).Msg("exportación completa")
	return result, nil
}

// writeReport genera el PDF con las tres métricas sobre todas las tablas.
func (uc *ExportUseCase) writeReport(ctx context.Context, path string, tables []string) error {
	var results []*dto.AggregateResult
	for _, metric := range []dto.Metric{dto.MetricPaid, dto.MetricAmortization, dto.MetricInterest} {
		res, err := uc.aggregation.Aggregate(ctx, dto.AggregateRequest{
			Tables:  tables,
			GroupBy: dto.GroupByCompany,
			Metric:  metric,
		})
		if err != nil {
			return err
		}
		results = append(results, res)
	}
	return uc.reports.Generate(path, results)
}

// Backup delega en el almacén la copia fría del archivo de datos.
func (uc *ExportUseCase) Backup(dir string) (string, error) {
	path, err := uc.backup.Backup(dir)
	if err != nil {
		return "", err
	}
	uc.log.Info().Str("backup", path).Msg("copia de seguridad creada")
	return path, nil
}

func writeCSV(path string, cols []string, recs []entity.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("crear %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(cols); err != nil {
		return fmt.Errorf("escribir encabezado de %s: %w", path, err)
	}
	line := make([]string, len(cols))
	for _, rec := range recs {
		for i, col := range cols {
			line[i] = rec[col]
		}
		if err := w.Write(line); err != nil {
			return fmt.Errorf("escribir fila en %s: %w", path, err)
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(path string, recs []entity.Record) error {
	if recs == nil {
		recs = []entity.Record{}
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("serializar %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("guardar %s: %w", path, err)
	}
	return nil
}
