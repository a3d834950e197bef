// Package auditfile persiste el registro de auditoría como un documento JSON
// por mutación, bajo <dir>/AAAA-MM-DD/. El nombre del archivo se deriva de un
// timestamp de alta resolución; el registro es de solo agregado: ninguna
// operación modifica ni elimina una entrada ya escrita.
package auditfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jhoicas/gestion-financiera/internal/domain"
	"github.com/jhoicas/gestion-financiera/internal/domain/entity"
	"github.com/jhoicas/gestion-financiera/internal/domain/repository"
)

var _ repository.AuditRepository = (*Log)(nil)

// Log escribe entradas de auditoría en disco.
type Log struct {
	mu  sync.Mutex
	dir string
	now func() time.Time // inyectable en tests
}

// NewLog construye el registro sobre el directorio dado.
func NewLog(dir string) *Log {
	return &Log{dir: dir, now: time.Now}
}

// Append persiste la entrada bajo un identificador libre de colisiones.
// Ráfagas de mutaciones dentro del mismo nanosegundo se desambiguan con un
// sufijo incremental: una entrada jamás sobreescribe otra.
func (l *Log) Append(entry entity.AuditEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if entry.Timestamp == "" {
		entry.Timestamp = now.Format(entity.AuditTimeLayout)
	}

	folder := filepath.Join(l.dir, now.Format("2006-01-02"))
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return fmt.Errorf("%w: crear directorio %s: %v", domain.ErrAuditWrite, folder, err)
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: serializar entrada: %v", domain.ErrAuditWrite, err)
	}

	base := fmt.Sprintf("%s_%09d", now.Format("150405"), now.Nanosecond())
	for seq := 0; ; seq++ {
		name := base + ".json"
		if seq > 0 {
			name = fmt.Sprintf("%s_%d.json", base, seq)
		}
		path := filepath.Join(folder, name)
		// O_EXCL garantiza que nunca se pisa un archivo existente.
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if os.IsExist(err) {
				continue
			}
			return fmt.Errorf("%w: crear %s: %v", domain.ErrAuditWrite, path, err)
		}
		_, werr := f.Write(data)
		cerr := f.Close()
		if werr != nil {
			return fmt.Errorf("%w: escribir %s: %v", domain.ErrAuditWrite, path, werr)
		}
		if cerr != nil {
			return fmt.Errorf("%w: cerrar %s: %v", domain.ErrAuditWrite, path, cerr)
		}
		return nil
	}
}
