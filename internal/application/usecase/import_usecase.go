package usecase

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/jhoicas/gestion-financiera/internal/application/dto"
	"github.com/jhoicas/gestion-financiera/internal/domain/entity"
	"github.com/jhoicas/gestion-financiera/pkg/logger"
)

// ImportUseCase carga lotes de filas desde archivos CSV o JSON sobre una
// tabla existente. Cada fila se resuelve de forma aislada: una fila inválida
// queda registrada en el resultado y no aborta el resto del lote.
type ImportUseCase struct {
	records *RecordUseCase
	log     *logger.Logger
}

// NewImportUseCase construye el caso de uso de importación.
func NewImportUseCase(records *RecordUseCase, log *logger.Logger) *ImportUseCase {
	return &ImportUseCase{records: records, log: log}
}

// Import ejecuta el lote. Las filas con id existente actualizan la fila
// completa; las demás se insertan. Una fila sin id recibe uno generado, de
// modo que siempre termina en un alta.
func (uc *ImportUseCase) Import(ctx context.Context, req dto.ImportRequest) (*dto.ImportResult, error) {
	cols, err := uc.records.Columns(ctx, req.Table)
	if err != nil {
		return nil, err
	}

	var rows []entity.Record
	switch req.Format {
	case dto.ImportCSV:
		rows, err = readCSV(req.Path, cols)
	case dto.ImportJSON:
		rows, err = readJSON(req.Path, cols)
	default:
		return nil, fmt.Errorf("formato de importación desconocido: %q", req.Format)
	}
	if err != nil {
		return nil, err
	}

	result := &dto.ImportResult{BatchID: uuid.NewString()}
	uc.log.Info().Str("tabla", req.Table).Str("lote", result.BatchID).
		Int("filas", len(rows)).Msg("importación iniciada")

	for i, rec := range rows {
		if rec.ID() == "" {
			rec[entity.ColumnID] = uuid.NewString()
		}
		updated, err := uc.records.UpsertImported(ctx, req.Table, rec, result.BatchID)
		if err != nil {
			result.Failures = append(result.Failures, dto.RowFailure{
				Line:   i + 1,
				ID:     rec.ID(),
				Reason: err.Error(),
			})
			continue
		}
		if updated {
			result.Updated++
		} else {
			result.Inserted++
		}
	}

	uc.log.Info().Str("lote", result.BatchID).
		Int("inseridos", result.Inserted).
		Int("atualizados", result.Updated).
		Int("falhas", len(result.Failures)).
		Msg("importación terminada")
	return result, nil
}

// readCSV lee el archivo con encabezado en la primera fila. Solo se
// conservan las columnas que existen en la tabla destino.
func readCSV(path string, tableCols []string) ([]entity.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("abrir %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // filas cortas se toleran
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("leer CSV %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil
	}

	known := make(map[string]bool, len(tableCols))
	for _, c := range tableCols {
		known[c] = true
	}

	header := all[0]
	var rows []entity.Record
	for _, line := range all[1:] {
		rec := entity.Record{}
		for i, col := range header {
			if i >= len(line) || !known[col] {
				continue
			}
			rec[col] = line[i]
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// readJSON lee un arreglo de objetos columna → valor.
func readJSON(path string, tableCols []string) ([]entity.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("abrir %s: %w", path, err)
	}
	var raw []map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("interpretar JSON %s: %w", path, err)
	}

	known := make(map[string]bool, len(tableCols))
	for _, c := range tableCols {
		known[c] = true
	}

	rows := make([]entity.Record, 0, len(raw))
	for _, obj := range raw {
		rec := entity.Record{}
		for col, val := range obj {
			if known[col] {
				rec[col] = val
			}
		}
		rows = append(rows, rec)
	}
	return rows, nil
}
