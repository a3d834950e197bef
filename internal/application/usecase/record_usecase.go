package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/gestion-financiera/internal/application/dto"
	"github.com/jhoicas/gestion-financiera/internal/domain"
	"github.com/jhoicas/gestion-financiera/internal/domain/entity"
	"github.com/jhoicas/gestion-financiera/internal/domain/policy"
	"github.com/jhoicas/gestion-financiera/internal/domain/repository"
	"github.com/jhoicas/gestion-financiera/pkg/logger"
)

// DateLayout formato de fecha aceptado en columnas de tipo date (dd-mm-aaaa).
const DateLayout = "02-01-2006"

// RecordUseCase orquesta las mutaciones sobre las tablas de contratos:
// valida contra las políticas de columna, escribe en el almacén y registra
// cada mutación en la auditoría. Las escrituras se serializan con un mutex:
// hay a lo sumo un escritor a la vez.
//
// Un fallo al escribir la auditoría se registra en el log pero nunca revierte
// la mutación de datos ya aplicada.
type RecordUseCase struct {
	mu       sync.Mutex
	tables   repository.TableRepository
	audit    repository.AuditRepository
	policies *policy.Store
	log      *logger.Logger
	actor    string
}

// NewRecordUseCase construye el caso de uso de registros.
func NewRecordUseCase(
	tables repository.TableRepository,
	audit repository.AuditRepository,
	policies *policy.Store,
	log *logger.Logger,
	actor string,
) *RecordUseCase {
	return &RecordUseCase{
		tables:   tables,
		audit:    audit,
		policies: policies,
		log:      log,
		actor:    actor,
	}
}

// Tables lista las tablas de datos existentes.
func (uc *RecordUseCase) Tables(ctx context.Context) ([]string, error) {
	return uc.tables.ListTables(ctx)
}

// Columns devuelve las columnas de la tabla.
func (uc *RecordUseCase) Columns(ctx context.Context, table string) ([]string, error) {
	return uc.tables.Columns(ctx, table)
}

// Rows devuelve todas las filas de la tabla.
func (uc *RecordUseCase) Rows(ctx context.Context, table string) ([]entity.Record, error) {
	return uc.tables.Fetch(ctx, table)
}

// Get devuelve la fila o domain.ErrNotFound si no existe.
func (uc *RecordUseCase) Get(ctx context.Context, table, id string) (entity.Record, error) {
	rec, err := uc.tables.Get(ctx, table, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("fila %s de %s: %w", id, table, domain.ErrNotFound)
	}
	return rec, nil
}

// Validate comprueba un valor contra la política efectiva de la columna.
// El valor vacío pasa siempre las comprobaciones de tipo; en columnas de
// conjunto fijo solo se tolera vacío durante el alta inicial de la fila.
func (uc *RecordUseCase) Validate(table, column, value string, initialInsert bool) error {
	p := uc.policies.Resolve(table, column)

	if value != "" {
		switch p.Type {
		case policy.TypeInt:
			if _, err := strconv.Atoi(value); err != nil {
				return domain.NewValidationError(domain.InvalidType, table, column, value,
					"se esperaba un número entero")
			}
		case policy.TypeFloat:
			if strings.Contains(value, ",") {
				return domain.NewValidationError(domain.InvalidFormat, table, column, value,
					"use punto como separador decimal")
			}
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				return domain.NewValidationError(domain.InvalidType, table, column, value,
					"se esperaba un número")
			}
		case policy.TypeDate:
			if _, err := time.Parse(DateLayout, value); err != nil {
				return domain.NewValidationError(domain.InvalidFormat, table, column, value,
					"se esperaba una fecha dd-mm-aaaa")
			}
		}
	}

	if p.Mode == policy.ModeFixed {
		if value == "" {
			if initialInsert {
				return nil
			}
			return &domain.ValidationError{
				Kind: domain.InvalidFixedValue, Table: table, Column: column,
				Value: value, Allowed: p.Values,
			}
		}
		if !p.Allows(value) {
			return &domain.ValidationError{
				Kind: domain.InvalidFixedValue, Table: table, Column: column,
				Value: value, Allowed: p.Values,
			}
		}
	}
	return nil
}

// validateRecord valida cada celda del registro contra su política y
// comprueba las columnas obligatorias. Todo se detecta antes de escribir.
func (uc *RecordUseCase) validateRecord(ctx context.Context, table string, rec entity.Record, initialInsert bool) error {
	cols, err := uc.tables.Columns(ctx, table)
	if err != nil {
		return err
	}
	var missing []string
	for _, col := range cols {
		value := rec[col]
		if err := uc.Validate(table, col, value, initialInsert); err != nil {
			return err
		}
		if value == "" && uc.policies.Resolve(table, col).Required {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &domain.ValidationError{
			Kind: domain.MissingRequired, Table: table, Columns: missing,
		}
	}
	return nil
}

// Insert da de alta una fila nueva. El id debe ser único en la tabla; toda la
// fila se valida antes de escribir y la mutación queda auditada.
func (uc *RecordUseCase) Insert(ctx context.Context, table string, rec entity.Record) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	id := rec.ID()
	exists, err := uc.tables.HasID(ctx, table, id)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("id %s en %s: %w", id, table, domain.ErrDuplicateID)
	}
	if err := uc.validateRecord(ctx, table, rec, true); err != nil {
		return err
	}
	if err := uc.tables.Insert(ctx, table, rec); err != nil {
		return err
	}
	uc.appendAudit(entity.AuditEntry{
		Table:   table,
		RowID:   id,
		Action:  entity.ActionInsert,
		Details: rec.Clone(),
	})
	return nil
}

// UpdateCell modifica una sola celda de una fila existente. La auditoría
// conserva el valor anterior y el nuevo.
func (uc *RecordUseCase) UpdateCell(ctx context.Context, table, column, value, id string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err := uc.Validate(table, column, value, false); err != nil {
		return err
	}
	old, err := uc.tables.Get(ctx, table, id)
	if err != nil {
		return err
	}
	if old == nil {
		return fmt.Errorf("fila %s de %s: %w", id, table, domain.ErrNotFound)
	}
	if _, ok := old[column]; !ok {
		return fmt.Errorf("columna %s en %s: %w", column, table, domain.ErrUnknownColumn)
	}
	if err := uc.tables.UpdateCell(ctx, table, column, value, id); err != nil {
		return err
	}
	uc.appendAudit(entity.AuditEntry{
		Table:    table,
		RowID:    id,
		Action:   entity.ActionUpdate,
		Column:   column,
		OldValue: old[column],
		NewValue: value,
	})
	return nil
}

// Delete elimina la fila y audita la fila completa tal como estaba. Si la
// fila no existe la operación es un no-op sin auditoría.
func (uc *RecordUseCase) Delete(ctx context.Context, table, id string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	old, err := uc.tables.Get(ctx, table, id)
	if err != nil {
		return err
	}
	if old == nil {
		return nil
	}
	if err := uc.tables.Delete(ctx, table, id); err != nil {
		return err
	}
	uc.appendAudit(entity.AuditEntry{
		Table:    table,
		RowID:    id,
		Action:   entity.ActionDelete,
		OldValue: old,
	})
	return nil
}

// Move traslada una fila entre tablas: inserta en destino con las columnas
// del destino (las ausentes quedan vacías, las sobrantes se descartan) y
// recién entonces elimina el origen. Un id duplicado en destino aborta sin
// tocar nada; las obligatorias del destino deben quedar completas, con
// req.Fill como complemento. Quedan dos entradas de auditoría: el alta y la
// baja.
func (uc *RecordUseCase) Move(ctx context.Context, req dto.MoveRequest) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	src, err := uc.tables.Get(ctx, req.FromTable, req.ID)
	if err != nil {
		return err
	}
	if src == nil {
		return fmt.Errorf("fila %s de %s: %w", req.ID, req.FromTable, domain.ErrNotFound)
	}

	destID := req.ID
	if req.NewID != "" {
		destID = req.NewID
	}
	exists, err := uc.tables.HasID(ctx, req.ToTable, destID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("id %s en %s: %w", destID, req.ToTable, domain.ErrDuplicateID)
	}

	destCols, err := uc.tables.Columns(ctx, req.ToTable)
	if err != nil {
		return err
	}
	dest := make(entity.Record, len(destCols))
	for _, col := range destCols {
		dest[col] = src[col]
		if dest[col] == "" {
			dest[col] = req.Fill[col]
		}
	}
	dest[entity.ColumnID] = destID

	// El traslado no revalida tipos ni conjuntos fijos contra el destino,
	// pero sus columnas obligatorias sí deben quedar completas.
	var missing []string
	for _, col := range destCols {
		if dest[col] == "" && uc.policies.Resolve(req.ToTable, col).Required {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &domain.ValidationError{
			Kind: domain.MissingRequired, Table: req.ToTable, Columns: missing,
		}
	}

	if err := uc.tables.Insert(ctx, req.ToTable, dest); err != nil {
		return err
	}
	uc.appendAudit(entity.AuditEntry{
		Table:   req.ToTable,
		RowID:   destID,
		Action:  entity.ActionInsert,
		Details: dest.Clone(),
	})

	if err := uc.tables.Delete(ctx, req.FromTable, req.ID); err != nil {
		return fmt.Errorf("eliminar origen tras el traslado: %w", err)
	}
	uc.appendAudit(entity.AuditEntry{
		Table:    req.FromTable,
		RowID:    req.ID,
		Action:   entity.ActionDelete,
		OldValue: src,
	})
	return nil
}

// CreateTable crea una tabla nueva con el esquema por defecto.
func (uc *RecordUseCase) CreateTable(ctx context.Context, name string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.tables.CreateTable(ctx, name)
}

// DropTable elimina la tabla, sus políticas asociadas y audita la operación.
func (uc *RecordUseCase) DropTable(ctx context.Context, name string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err := uc.tables.DropTable(ctx, name); err != nil {
		return err
	}
	if err := uc.policies.DropTable(name); err != nil {
		uc.log.Warn().Err(err).Str("tabla", name).
			Msg("no se pudieron limpiar las políticas de la tabla eliminada")
	}
	uc.appendAudit(entity.AuditEntry{
		Table:  name,
		Action: entity.ActionDropTable,
	})
	return nil
}

// UpsertImported escribe una fila de un lote de importación: actualiza la
// fila completa si el id ya existe, la inserta si no. Devuelve si fue una
// actualización. La entrada de auditoría lleva el id del lote para poder
// correlacionar todas las filas de la misma importación.
func (uc *RecordUseCase) UpsertImported(ctx context.Context, table string, rec entity.Record, batchID string) (updated bool, err error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err := uc.validateRecord(ctx, table, rec, true); err != nil {
		return false, err
	}

	old, err := uc.tables.Get(ctx, table, rec.ID())
	if err != nil {
		return false, err
	}

	details := rec.Clone()
	details["lote_importacao"] = batchID

	if old != nil {
		if err := uc.tables.UpdateRow(ctx, table, rec); err != nil {
			return false, err
		}
		uc.appendAudit(entity.AuditEntry{
			Table:    table,
			RowID:    rec.ID(),
			Action:   entity.ActionImportUpdate,
			OldValue: old,
			Details:  details,
		})
		return true, nil
	}

	if err := uc.tables.Insert(ctx, table, rec); err != nil {
		return false, err
	}
	uc.appendAudit(entity.AuditEntry{
		Table:   table,
		RowID:   rec.ID(),
		Action:  entity.ActionImportInsert,
		Details: details,
	})
	return false, nil
}

// appendAudit registra la mutación firmada por el actor. Un fallo de
// auditoría se loguea y se sigue adelante: la mutación de datos ya ocurrió.
func (uc *RecordUseCase) appendAudit(entry entity.AuditEntry) {
	entry.Actor = uc.actor
	if err := uc.audit.Append(entry); err != nil {
		uc.log.Error().Err(err).
			Str("tabla", entry.Table).
			Str("accion", string(entry.Action)).
			Msg("fallo al escribir la auditoría; la mutación de datos se mantiene")
	}
}
