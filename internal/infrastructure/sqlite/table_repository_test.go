package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/gestion-financiera/internal/domain"
	"github.com/jhoicas/gestion-financiera/internal/domain/entity"
	"github.com/jhoicas/gestion-financiera/internal/infrastructure/sqlite"
)

func newTestRepo(t *testing.T) *sqlite.TableRepo {
	t.Helper()
	client, err := sqlite.NewClient(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return sqlite.NewTableRepository(client)
}

func TestCreateTable_EsquemaPorDefecto(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.CreateTable(ctx, "BancoX"))

	cols, err := repo.Columns(ctx, "BancoX")
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultColumns, cols)

	tables, err := repo.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BancoX"}, tables)
}

func TestColumns_TablaInexistente(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Columns(context.Background(), "NoExiste")

	assert.ErrorIs(t, err, domain.ErrUnknownTable)
}

func TestInsertGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.CreateTable(ctx, "BancoX"))

	rec := entity.Record{
		"id":              "A1",
		"empresa":         "ACME",
		"valor_adquirido": "1500.00",
	}
	require.NoError(t, repo.Insert(ctx, "BancoX", rec))

	has, err := repo.HasID(ctx, "BancoX", "A1")
	require.NoError(t, err)
	assert.True(t, has)

	got, err := repo.Get(ctx, "BancoX", "A1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ACME", got["empresa"])
	assert.Equal(t, "", got["documento"], "las columnas no provistas quedan vacías")

	require.NoError(t, repo.UpdateCell(ctx, "BancoX", "empresa", "Beta", "A1"))
	got, err = repo.Get(ctx, "BancoX", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Beta", got["empresa"])

	require.NoError(t, repo.Delete(ctx, "BancoX", "A1"))
	got, err = repo.Get(ctx, "BancoX", "A1")
	require.NoError(t, err)
	assert.Nil(t, got, "Get devuelve nil para una fila inexistente")
}

func TestDelete_FilaInexistenteEsNoOp(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.CreateTable(ctx, "BancoX"))

	assert.NoError(t, repo.Delete(ctx, "BancoX", "no-existe"))
}

func TestUpdateRow_ReescribeTodasLasColumnas(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.CreateTable(ctx, "BancoX"))
	require.NoError(t, repo.Insert(ctx, "BancoX", entity.Record{
		"id": "A1", "empresa": "ACME", "documento": "D-1",
	}))

	require.NoError(t, repo.UpdateRow(ctx, "BancoX", entity.Record{
		"id": "A1", "empresa": "Beta",
	}))

	got, err := repo.Get(ctx, "BancoX", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Beta", got["empresa"])
	assert.Equal(t, "", got["documento"], "las columnas ausentes del Record se vacían")
}

func TestFetch_OrdenadoPorID(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.CreateTable(ctx, "BancoX"))
	require.NoError(t, repo.Insert(ctx, "BancoX", entity.Record{"id": "B2"}))
	require.NoError(t, repo.Insert(ctx, "BancoX", entity.Record{"id": "A1"}))

	recs, err := repo.Fetch(ctx, "BancoX")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "A1", recs[0].ID())
	assert.Equal(t, "B2", recs[1].ID())
}

func TestDropTable_YTablaInexistente(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.CreateTable(ctx, "BancoX"))

	require.NoError(t, repo.DropTable(ctx, "BancoX"))
	require.NoError(t, repo.DropTable(ctx, "BancoX"), "drop de tabla inexistente no es error")

	tables, err := repo.ListTables(ctx)
	require.NoError(t, err)
	assert.Empty(t, tables)
}
