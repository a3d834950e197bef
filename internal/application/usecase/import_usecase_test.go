package usecase_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/gestion-financiera/internal/application/dto"
	"github.com/jhoicas/gestion-financiera/internal/application/usecase"
	"github.com/jhoicas/gestion-financiera/internal/domain/entity"
	"github.com/jhoicas/gestion-financiera/internal/domain/policy"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImport_CSVInsertaYActualiza(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	mustCreateTable(t, e, "BancoX")
	mustInsert(t, e, "BancoX", entity.Record{"id": "A1", "empresa": "Vieja"})

	imp := usecase.NewImportUseCase(e.records, e.log)
	path := writeTempFile(t, "lote.csv",
		"id,empresa,columna_desconocida\n"+
			"A1,ACME,ignorada\n"+
			"A2,Beta,ignorada\n")

	res, err := imp.Import(ctx, dto.ImportRequest{
		Table: "BancoX", Path: path, Format: dto.ImportCSV,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.BatchID)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Updated)
	assert.Empty(t, res.Failures)

	rec, err := e.records.Get(ctx, "BancoX", "A1")
	require.NoError(t, err)
	assert.Equal(t, "ACME", rec["empresa"], "la fila existente se actualizó")

	// Las entradas del lote llevan las acciones de importación y el id del lote.
	var importActions int
	for _, en := range e.auditEntries(t) {
		if en["acao"] == "IMPORT_INSERT" || en["acao"] == "IMPORT_UPDATE" {
			importActions++
			details, ok := en["detalhes"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, res.BatchID, details["lote_importacao"])
		}
	}
	assert.Equal(t, 2, importActions)
}

func TestImport_FilaSinIDRecibeUnoGenerado(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	mustCreateTable(t, e, "BancoX")

	imp := usecase.NewImportUseCase(e.records, e.log)
	path := writeTempFile(t, "lote.csv", "empresa\nACME\nBeta\n")

	res, err := imp.Import(ctx, dto.ImportRequest{
		Table: "BancoX", Path: path, Format: dto.ImportCSV,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)

	rows, err := e.records.Rows(ctx, "BancoX")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.NotEmpty(t, r.ID())
	}
}

func TestImport_FilaInvalidaNoAbortaElLote(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	mustCreateTable(t, e, "BancoX")
	require.NoError(t, e.policies.Set(ctx, "BancoX", "numero_parcelas",
		policy.Policy{Type: policy.TypeInt, Mode: policy.ModeFree}))

	imp := usecase.NewImportUseCase(e.records, e.log)
	path := writeTempFile(t, "lote.csv",
		"id,numero_parcelas\n"+
			"A1,12\n"+
			"A2,doce\n"+
			"A3,24\n")

	res, err := imp.Import(ctx, dto.ImportRequest{
		Table: "BancoX", Path: path, Format: dto.ImportCSV,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Inserted)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "A2", res.Failures[0].ID)
	assert.Equal(t, 2, res.Failures[0].Line)

	rows, err := e.records.Rows(ctx, "BancoX")
	require.NoError(t, err)
	assert.Len(t, rows, 2, "las filas válidas del lote quedaron escritas")
}

func TestImport_JSON(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	mustCreateTable(t, e, "BancoX")

	imp := usecase.NewImportUseCase(e.records, e.log)
	path := writeTempFile(t, "lote.json",
		`[{"id": "A1", "empresa": "ACME"}, {"id": "A2", "empresa": "Beta"}]`)

	res, err := imp.Import(ctx, dto.ImportRequest{
		Table: "BancoX", Path: path, Format: dto.ImportJSON,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)

	rec, err := e.records.Get(ctx, "BancoX", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Beta", rec["empresa"])
}

func TestImport_FormatoDesconocido(t *testing.T) {
	e := newEnv(t)
	mustCreateTable(t, e, "BancoX")
	imp := usecase.NewImportUseCase(e.records, e.log)

	_, err := imp.Import(context.Background(), dto.ImportRequest{
		Table: "BancoX", Path: "x", Format: "xml",
	})

	assert.Error(t, err)
}
