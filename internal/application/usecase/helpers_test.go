package usecase_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jhoicas/gestion-financiera/internal/application/usecase"
	"github.com/jhoicas/gestion-financiera/internal/domain/entity"
	"github.com/jhoicas/gestion-financiera/internal/domain/policy"
	"github.com/jhoicas/gestion-financiera/internal/infrastructure/auditfile"
	"github.com/jhoicas/gestion-financiera/internal/infrastructure/sqlite"
	"github.com/jhoicas/gestion-financiera/pkg/logger"
)

// env arma un entorno real completo sobre directorios temporales: base
// SQLite, log de auditoría en archivos y almacén de políticas.
type env struct {
	records  *usecase.RecordUseCase
	repo     *sqlite.TableRepo
	client   *sqlite.Client
	policies *policy.Store
	auditDir string
	log      *logger.Logger
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()

	client, err := sqlite.NewClient(context.Background(), filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	repo := sqlite.NewTableRepository(client)
	policies := policy.NewStore(filepath.Join(dir, "settings.json"), repo)
	require.NoError(t, policies.Load())

	auditDir := filepath.Join(dir, "logs")
	log := logger.New(logger.Config{Env: "production", Level: "error"})

	records := usecase.NewRecordUseCase(repo, auditfile.NewLog(auditDir), policies, log, "tester")
	return &env{
		records:  records,
		repo:     repo,
		client:   client,
		policies: policies,
		auditDir: auditDir,
		log:      log,
	}
}

// auditEntries lee todas las entradas de auditoría escritas, en orden de
// nombre de archivo (cronológico dentro del mismo día).
func (e *env) auditEntries(t *testing.T) []map[string]any {
	t.Helper()
	var entries []map[string]any
	err := filepath.Walk(e.auditDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || filepath.Ext(path) != ".json" {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		entries = append(entries, doc)
		return nil
	})
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return entries
}

func mustCreateTable(t *testing.T, e *env, name string) {
	t.Helper()
	require.NoError(t, e.records.CreateTable(context.Background(), name))
}

func mustInsert(t *testing.T, e *env, table string, rec entity.Record) {
	t.Helper()
	require.NoError(t, e.records.Insert(context.Background(), table, rec))
}
