// Package uploader runs presigned-URL uploads for the desk client: one
// goroutine per file, progress callbacks, and pause/resume/cancel control.
// Pausing cancels the in-flight PUT; resuming re-sends the file from the
// start (presigned PUTs cannot be range-resumed).
package uploader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/mpodriezov/boardpack/internal/common"
)

// Task statuses.
const (
	StatusUploading = "uploading"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Spec describes one upload: where the bytes go and what they are.
type Spec struct {
	FileID      string
	URL         string
	ContentType string
	Data        []byte
}

// Callbacks receive upload lifecycle notifications. Any callback may be nil.
// OnProgress fires on whole-percent changes; OnComplete and OnError fire at
// most once per run.
type Callbacks struct {
	OnProgress func(fileID string, percent int)
	OnComplete func(fileID string)
	OnError    func(fileID string, err error)
}

// Task is a point-in-time snapshot of one upload.
type Task struct {
	FileID  string
	Status  string
	Percent int
}

type task struct {
	spec      Spec
	callbacks Callbacks
	status    string
	percent   int
	cancel    context.CancelFunc
	// gen identifies the current run. A canceled run's goroutine may
	// outlive its cancellation; outcomes carrying a stale gen are dropped
	// so a relaunched upload never double-reports.
	gen int
	// withheldCompletion records a PUT that finished after Pause won the
	// race; the completion callback is held back until Resume.
	withheldCompletion bool
}

// Manager owns the set of active uploads, one per file id.
type Manager struct {
	mu     sync.Mutex
	tasks  map[string]*task
	client *http.Client
}

func NewManager() *Manager {
	return &Manager{
		tasks:  make(map[string]*task),
		client: &http.Client{Timeout: 10 * time.Minute},
	}
}

// Start launches an upload in its own goroutine. A second Start for a file
// that is still uploading or paused returns ErrUploadInFlight; completed or
// failed tasks may be started again.
func (m *Manager) Start(ctx context.Context, spec Spec, cb Callbacks) error {
	m.mu.Lock()
	if t, ok := m.tasks[spec.FileID]; ok {
		if t.status == StatusUploading || t.status == StatusPaused {
			m.mu.Unlock()
			return common.ErrUploadInFlight
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	t := &task{spec: spec, callbacks: cb, status: StatusUploading, cancel: cancel, gen: 1}
	m.tasks[spec.FileID] = t
	m.mu.Unlock()

	go m.run(runCtx, t, t.gen)
	return nil
}

// Pause cancels the in-flight PUT and marks the task paused. A completion
// that slips in after the cancel is withheld until Resume.
func (m *Manager) Pause(fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[fileID]
	if !ok {
		return common.ErrorNotFound
	}
	if t.status != StatusUploading {
		return common.ErrorConflict
	}
	t.status = StatusPaused
	t.cancel()
	return nil
}

// Resume continues a paused upload. If the previous PUT actually finished
// before the pause took effect, the withheld completion is delivered and no
// bytes are re-sent; otherwise the file is re-PUT from the beginning.
func (m *Manager) Resume(ctx context.Context, fileID string) error {
	m.mu.Lock()
	t, ok := m.tasks[fileID]
	if !ok {
		m.mu.Unlock()
		return common.ErrorNotFound
	}
	if t.status != StatusPaused {
		m.mu.Unlock()
		return common.ErrorConflict
	}

	if t.withheldCompletion {
		t.withheldCompletion = false
		t.status = StatusCompleted
		t.percent = 100
		cb, id := t.callbacks, t.spec.FileID
		m.mu.Unlock()
		if cb.OnComplete != nil {
			cb.OnComplete(id)
		}
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	t.status = StatusUploading
	t.percent = 0
	t.cancel = cancel
	t.gen++
	m.mu.Unlock()

	go m.run(runCtx, t, t.gen)
	return nil
}

// Cancel aborts an upload and forgets the task.
func (m *Manager) Cancel(fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[fileID]
	if !ok {
		return common.ErrorNotFound
	}
	t.cancel()
	delete(m.tasks, fileID)
	return nil
}

// Cleanup cancels everything and clears the task map.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, t := range m.tasks {
		t.cancel()
		delete(m.tasks, id)
	}
}

// Task returns a snapshot of one upload.
func (m *Manager) Task(fileID string) (Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[fileID]
	if !ok {
		return Task{}, false
	}
	return Task{FileID: t.spec.FileID, Status: t.status, Percent: t.percent}, true
}

// Tasks returns snapshots of all known uploads.
func (m *Manager) Tasks() []Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		result = append(result, Task{FileID: t.spec.FileID, Status: t.status, Percent: t.percent})
	}
	return result
}

func (m *Manager) run(ctx context.Context, t *task, gen int) {
	err := m.put(ctx, t, gen)
	if err != nil {
		m.fail(t, gen, err)
		return
	}
	m.finish(t, gen)
}

func (m *Manager) put(ctx context.Context, t *task, gen int) error {
	body := newProgressReader(bytes.NewReader(t.spec.Data), int64(len(t.spec.Data)), func(percent int) {
		m.progress(t, gen, percent)
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, t.spec.URL, body)
	if err != nil {
		return err
	}
	req.ContentLength = int64(len(t.spec.Data))
	if t.spec.ContentType != "" {
		req.Header.Set("Content-Type", t.spec.ContentType)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("upload failed with status %d", resp.StatusCode)
	}
	return nil
}

// finish marks a run completed. If Pause won the race, the completion is
// withheld for Resume to deliver; a stale run superseded by Resume is
// dropped entirely.
func (m *Manager) finish(t *task, gen int) {
	m.mu.Lock()
	if gen != t.gen {
		m.mu.Unlock()
		return
	}
	if t.status == StatusPaused {
		t.withheldCompletion = true
		m.mu.Unlock()
		return
	}
	t.status = StatusCompleted
	t.percent = 100
	cb, id := t.callbacks, t.spec.FileID
	m.mu.Unlock()

	if cb.OnComplete != nil {
		cb.OnComplete(id)
	}
}

func (m *Manager) fail(t *task, gen int, err error) {
	m.mu.Lock()
	if gen != t.gen {
		m.mu.Unlock()
		return
	}
	// A cancellation caused by Pause or Cancel is not a failure.
	if t.status == StatusPaused || errors.Is(err, context.Canceled) {
		m.mu.Unlock()
		return
	}
	t.status = StatusFailed
	cb, id := t.callbacks, t.spec.FileID
	m.mu.Unlock()

	if cb.OnError != nil {
		cb.OnError(id, err)
	}
}

func (m *Manager) progress(t *task, gen int, percent int) {
	m.mu.Lock()
	current := gen == t.gen && percent > t.percent
	if current {
		t.percent = percent
	}
	m.mu.Unlock()

	if current && t.callbacks.OnProgress != nil {
		t.callbacks.OnProgress(t.spec.FileID, percent)
	}
}
