package policy

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch recarga el almacén cuando el archivo de configuración cambia en disco
// (por ejemplo, tras correr el job de mantenimiento externo). Bloquea hasta
// que el contexto se cancela; onReload es opcional y se invoca tras cada
// recarga exitosa.
//
// Se vigila el directorio y no el archivo: los editores y escrituras atómicas
// reemplazan el inode, lo que haría perder el watch directo.
func (s *Store) Watch(ctx context.Context, onReload func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return err
	}

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			s.mu.Lock()
			err := s.loadLocked()
			s.mu.Unlock()
			if err == nil && onReload != nil {
				onReload()
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// errores transitorios del watcher no detienen la vigilancia
		}
	}
}
