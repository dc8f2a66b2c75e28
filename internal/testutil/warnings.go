package testutil

import "sync"

// WarningRecorder collects materialization warnings for assertions.
//
// It satisfies rows.Warner. Unlike a discard logger, every message is kept
// in arrival order and can be reset for test reuse.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type WarningRecorder struct {
	mu       sync.Mutex
	messages []string
	attrs    [][]any
}

// NewWarningRecorder creates an empty recorder.
func NewWarningRecorder() *WarningRecorder {
	return &WarningRecorder{}
}

// Warn records a warning message and its attributes.
func (w *WarningRecorder) Warn(msg string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = append(w.messages, msg)
	w.attrs = append(w.attrs, append([]any(nil), args...))
}

// Messages returns a copy of the recorded messages.
func (w *WarningRecorder) Messages() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.messages...)
}

// Attr returns the value of key in the attributes of the i-th warning.
func (w *WarningRecorder) Attr(i int, key string) (any, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i < 0 || i >= len(w.attrs) {
		return nil, false
	}
	args := w.attrs[i]
	for j := 0; j+1 < len(args); j += 2 {
		if k, ok := args[j].(string); ok && k == key {
			return args[j+1], true
		}
	}
	return nil, false
}

// Reset clears all recorded warnings.
func (w *WarningRecorder) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = nil
	w.attrs = nil
}
