// Package policy resuelve y persiste las reglas de validación y
// estandarización por tabla y columna. La clave "*" actúa como comodín:
// aplica a cualquier tabla que no tenga una entrada propia.
package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ColumnType es el tipo declarado de una columna.
type ColumnType string

const (
	TypeText  ColumnType = "text"
	TypeInt   ColumnType = "int"
	TypeFloat ColumnType = "float"
	TypeDate  ColumnType = "date"
)

// Mode indica si la columna acepta texto libre o solo un conjunto fijo.
type Mode string

const (
	ModeFree  Mode = "free"
	ModeFixed Mode = "fixed"
)

// Wildcard es la clave de tabla que aplica a todas las tablas sin entrada propia.
const Wildcard = "*"

// Policy es la regla efectiva de una columna.
type Policy struct {
	Type     ColumnType
	Mode     Mode
	Values   []string
	Required bool
}

// Default devuelve la política por omisión: texto libre, no obligatoria.
func Default() Policy {
	return Policy{Type: TypeText, Mode: ModeFree}
}

// Allows informa si un valor no vacío pertenece al conjunto fijo.
func (p Policy) Allows(value string) bool {
	if p.Mode != ModeFixed {
		return true
	}
	for _, v := range p.Values {
		if v == value {
			return true
		}
	}
	return false
}

// TableLister es el puerto mínimo que necesita la propagación del comodín:
// conocer las tablas existentes y sus columnas.
type TableLister interface {
	ListTables(ctx context.Context) ([]string, error)
	Columns(ctx context.Context, table string) ([]string, error)
}

// stdEntry es la representación persistida de la estandarización (formato
// histórico del settings.json).
type stdEntry struct {
	Mode     Mode     `json:"mode"`
	Values   []string `json:"values"`
	Required bool     `json:"required"`
}

// settingsDoc es el documento completo persistido. Además de las políticas
// conserva las selecciones de columnas visibles y de reporte.
type settingsDoc struct {
	VisualCols         map[string][]string             `json:"visual_cols"`
	ReportCols         []string                        `json:"report_cols"`
	ColTypes           map[string]map[string]ColumnType `json:"col_types"`
	ColStandardization map[string]map[string]stdEntry  `json:"col_standardization"`
	DBPath             string                          `json:"db_path"`
}

// Store mantiene las políticas en memoria con persistencia JSON explícita
// (Load/Save). Es seguro para lectura concurrente; las escrituras se
// serializan internamente.
type Store struct {
	mu     sync.RWMutex
	path   string
	lister TableLister // puede ser nil: la propagación del comodín se omite
	doc    settingsDoc
}

// NewStore construye el almacén de políticas sobre el archivo dado.
// El lister habilita la propagación del comodín a tablas existentes.
func NewStore(path string, lister TableLister) *Store {
	return &Store{path: path, lister: lister, doc: emptyDoc()}
}

func emptyDoc() settingsDoc {
	return settingsDoc{
		VisualCols:         map[string][]string{},
		ColTypes:           map[string]map[string]ColumnType{},
		ColStandardization: map[string]map[string]stdEntry{},
	}
}

// Load lee el documento desde disco. Un archivo inexistente deja el almacén
// vacío sin error (primer arranque).
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.doc = emptyDoc()
			return nil
		}
		return fmt.Errorf("leer configuración %s: %w", s.path, err)
	}
	doc := emptyDoc()
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("interpretar configuración %s: %w", s.path, err)
	}
	if doc.VisualCols == nil {
		doc.VisualCols = map[string][]string{}
	}
	if doc.ColTypes == nil {
		doc.ColTypes = map[string]map[string]ColumnType{}
	}
	if doc.ColStandardization == nil {
		doc.ColStandardization = map[string]map[string]stdEntry{}
	}
	s.doc = doc
	return nil
}

// Save persiste el documento completo.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("crear directorio de configuración: %w", err)
	}
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("serializar configuración: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("guardar configuración %s: %w", s.path, err)
	}
	return nil
}

// Resolve devuelve la política efectiva de (tabla, columna) aplicando la
// precedencia: entrada exacta de la tabla, luego comodín, luego la política
// por omisión. Nunca falla.
func (s *Store) Resolve(table, column string) Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := Default()
	if t, ok := lookupWithWildcard(s.doc.ColTypes, table, column); ok {
		p.Type = t
	}
	if std, ok := lookupWithWildcard(s.doc.ColStandardization, table, column); ok {
		p.Mode = std.Mode
		p.Values = append([]string(nil), std.Values...)
		p.Required = std.Required
	}
	return p
}

func lookupWithWildcard[V any](m map[string]map[string]V, table, column string) (V, bool) {
	if byCol, ok := m[table]; ok {
		if v, ok := byCol[column]; ok {
			return v, true
		}
	}
	if byCol, ok := m[Wildcard]; ok {
		if v, ok := byCol[column]; ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// Set registra la política de (tabla, columna) y persiste. Cuando la tabla es
// el comodín "*", propaga además la misma política a cada tabla existente que
// tenga esa columna y no lleve ya una entrada propia: las entradas específicas
// nunca se pisan.
func (s *Store) Set(ctx context.Context, table, column string, p Policy) error {
	s.mu.Lock()
	s.setLocked(table, column, p)

	if table == Wildcard && s.lister != nil {
		tables, err := s.lister.ListTables(ctx)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("propagar comodín: %w", err)
		}
		for _, t := range tables {
			cols, err := s.lister.Columns(ctx, t)
			if err != nil {
				continue // la tabla pudo desaparecer entre medio
			}
			if !contains(cols, column) || s.hasOwnEntry(t, column) {
				continue
			}
			s.setLocked(t, column, p)
		}
	}

	err := s.saveLocked()
	s.mu.Unlock()
	return err
}

func (s *Store) setLocked(table, column string, p Policy) {
	if s.doc.ColTypes[table] == nil {
		s.doc.ColTypes[table] = map[string]ColumnType{}
	}
	s.doc.ColTypes[table][column] = p.Type
	if s.doc.ColStandardization[table] == nil {
		s.doc.ColStandardization[table] = map[string]stdEntry{}
	}
	s.doc.ColStandardization[table][column] = stdEntry{
		Mode:     p.Mode,
		Values:   append([]string(nil), p.Values...),
		Required: p.Required,
	}
}

func (s *Store) hasOwnEntry(table, column string) bool {
	if byCol, ok := s.doc.ColStandardization[table]; ok {
		if _, ok := byCol[column]; ok {
			return true
		}
	}
	if byCol, ok := s.doc.ColTypes[table]; ok {
		if _, ok := byCol[column]; ok {
			return true
		}
	}
	return false
}

// DropTable elimina todas las entradas asociadas a la tabla (tipos,
// estandarización y columnas visibles) y persiste.
func (s *Store) DropTable(table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.doc.ColTypes, table)
	delete(s.doc.ColStandardization, table)
	delete(s.doc.VisualCols, table)
	return s.saveLocked()
}

// Tables devuelve las claves de tabla (incluido el comodín) con alguna
// política registrada, ordenadas.
func (s *Store) Tables() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]struct{}{}
	for t := range s.doc.ColTypes {
		seen[t] = struct{}{}
	}
	for t := range s.doc.ColStandardization {
		seen[t] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// VisualColumns devuelve las columnas visibles configuradas para la tabla
// (o el comodín); si no hay selección devuelve all.
func (s *Store) VisualColumns(table string, all []string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.doc.VisualCols[table]; ok {
		return append([]string(nil), v...)
	}
	if v, ok := s.doc.VisualCols[Wildcard]; ok {
		return append([]string(nil), v...)
	}
	return all
}

// SetVisualColumns fija la selección de columnas visibles de la tabla.
func (s *Store) SetVisualColumns(table string, cols []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.VisualCols[table] = append([]string(nil), cols...)
	return s.saveLocked()
}

// ReportColumns devuelve las columnas de reporte configuradas; si no hay
// selección devuelve all.
func (s *Store) ReportColumns(all []string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.doc.ReportCols) > 0 {
		return append([]string(nil), s.doc.ReportCols...)
	}
	return all
}

// SetReportColumns fija la selección de columnas de reporte.
func (s *Store) SetReportColumns(cols []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.ReportCols = append([]string(nil), cols...)
	return s.saveLocked()
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
