// Package registry реализует реестр активных процессов: не более одного
// активного задания на пользователя и кооперативный флаг отмены.
// Реестр — транспорт отмены: он не прерывает задание сам, задание обязано
// опрашивать IsCancelled в контрольных точках и сворачиваться самостоятельно.
package registry

import (
	"errors"
	"sync"
	"time"
)

// ErrAlreadyActive возвращается, когда у пользователя уже есть активное задание.
var ErrAlreadyActive = errors.New("process already active for user")

// Entry запись об одном процессе пользователя.
// Завершенные записи не удаляются из реестра, только помечаются неактивными.
type Entry struct {
	Active          bool
	CancelRequested bool
	Type            string
	Filename        string
	StartedAt       time.Time
}

// Registry потокобезопасный реестр процессов, ключ — идентификатор пользователя.
// Запись мутируют и задание, и команда отмены, доступ сериализован мьютексом.
type Registry struct {
	mu    sync.Mutex
	procs map[int64]*Entry
}

// New создает пустой реестр.
func New() *Registry {
	return &Registry{procs: make(map[int64]*Entry)}
}

// Start регистрирует новый процесс пользователя.
// Возвращает ErrAlreadyActive, если активный процесс уже существует.
func (r *Registry) Start(userID int64, processType, filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.procs[userID]; ok && e.Active {
		return ErrAlreadyActive
	}
	r.procs[userID] = &Entry{
		Active:    true,
		Type:      processType,
		Filename:  filename,
		StartedAt: time.Now(),
	}
	return nil
}

// RequestCancel выставляет флаг отмены активного процесса и сразу помечает
// его неактивным. Возвращает false, если активного процесса нет.
func (r *Registry) RequestCancel(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.procs[userID]
	if !ok || !e.Active {
		return false
	}
	e.CancelRequested = true
	e.Active = false
	return true
}

// IsCancelled сообщает, запрашивал ли пользователь отмену текущего процесса.
func (r *Registry) IsCancelled(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.procs[userID]; ok {
		return e.CancelRequested
	}
	return false
}

// End помечает процесс пользователя завершенным.
func (r *Registry) End(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.procs[userID]; ok {
		e.Active = false
	}
}

// ActiveProcess описание активного процесса для отчетов.
type ActiveProcess struct {
	UserID int64
	Entry
}

// Active возвращает снимок всех активных процессов.
func (r *Registry) Active() []ActiveProcess {
	r.mu.Lock()
	defer r.mu.Unlock()

	var active []ActiveProcess
	for userID, e := range r.procs {
		if e.Active {
			active = append(active, ActiveProcess{UserID: userID, Entry: *e})
		}
	}
	return active
}
