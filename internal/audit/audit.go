// Package audit provides an async, buffered writer for engine-initiated
// audit entries — state transitions the engines make on their own rather
// than in response to an external caller. The composition root records
// every outbound notification (which covers failover triggered/recovered)
// and every completed SLA measurement job; service registration is not
// audited.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/m00npl/guardant/pkg/store"
)

// Entry is one audit log record.
type Entry struct {
	NestID    string            `json:"nestId"`
	Action    string            `json:"action"`
	Resource  string            `json:"resource"`
	Detail    map[string]string `json:"detail,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func entryKey(e Entry) string {
	return fmt.Sprintf("audit:%d:%s", e.Timestamp.UnixNano(), e.Action)
}

const (
	bufferSize    = 256
	flushInterval = 2 * time.Second
	flushBatch    = 32
)

// Writer is an async, buffered audit log writer, grounded on the shape of a
// background-flushing queue writer: entries are enqueued without blocking
// the caller and flushed periodically or in batches.
type Writer struct {
	store   store.Store
	logger  *slog.Logger
	entries chan Entry
	wg      sync.WaitGroup
}

// NewWriter creates a Writer. Call Start to begin processing entries.
func NewWriter(st store.Store, logger *slog.Logger) *Writer {
	return &Writer{
		store:   st,
		logger:  logger,
		entries: make(chan Entry, bufferSize),
	}
}

// Start begins the background flush loop in its own goroutine and returns
// immediately. The loop exits once ctx is cancelled or Close is called,
// after flushing the entries pending at that moment.
func (w *Writer) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
}

// Close waits for all pending entries to be flushed.
func (w *Writer) Close() {
	close(w.entries)
	w.wg.Wait()
}

// Log enqueues an entry for async writing. It never blocks the caller; if
// the buffer is full the entry is dropped and a warning is logged.
func (w *Writer) Log(nestID, action, resource string, detail map[string]string) {
	entry := Entry{
		NestID:    nestID,
		Action:    action,
		Resource:  resource,
		Detail:    detail,
		Timestamp: time.Now(),
	}
	select {
	case w.entries <- entry:
	default:
		w.logger.Warn("audit log buffer full, dropping entry", "action", action, "resource", resource)
	}
}

func (w *Writer) run(ctx context.Context) {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]Entry, 0, flushBatch)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		w.flush(batch)
		batch = batch[:0]
	}

	for {
		select {
		case entry, ok := <-w.entries:
			if !ok {
				flush()
				return
			}
			batch = append(batch, entry)
			if len(batch) >= flushBatch {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			for {
				select {
				case entry, ok := <-w.entries:
					if !ok {
						flush()
						return
					}
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (w *Writer) flush(entries []Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, e := range entries {
		nestID := e.NestID
		if nestID == "" {
			nestID = store.SystemNamespace
		}
		if err := w.store.Put(ctx, nestID, store.DataTypeAuditLog, entryKey(e), e); err != nil {
			w.logger.Error("writing audit log entry", "error", err, "action", e.Action, "resource", e.Resource)
		}
	}
}
