package repository

import "github.com/jhoicas/gestion-financiera/internal/domain/entity"

// AuditRepository es el puerto del registro de auditoría: solo se agrega,
// nunca se modifica ni se borra una entrada ya escrita.
type AuditRepository interface {
	Append(entry entity.AuditEntry) error
}
