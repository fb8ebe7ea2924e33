// Package pipeline implements the ordered producer/worker-pool/consumer
// (component H of the specification): a single sequential decoder feeds a
// bounded channel of indexed records to N stateless worker goroutines,
// whose outputs are re-ordered back into input order by a small buffer in
// the serial writer goroutine, per spec.md §4.3 and §9's design note.
// The shard-indexed goroutine-pool shape is grounded on
// encoding/converter/convert.go's ConvertToBAM.
package pipeline

import (
	"sync"

	"github.com/FofanovLab/mtsv-tools/mtsverrors"
)

// Record is one input record tagged with its position in the input
// stream; Index ordering is the ordering contract Writer must preserve.
type Record struct {
	Index int
	Id    string
	Seq   []byte
}

// result is one computed output, still tagged with its input Index so the
// writer can re-order it.
type result struct {
	index int
	line  string
}

// Decoder yields the next input record. ok is false once the input is
// exhausted (clean end of stream); a non-nil err is always terminal.
type Decoder func() (rec Record, ok bool, err error)

// Work computes the result line for one record. A non-empty return means
// the caller should write that line (with a trailing newline); an empty
// string means the record produced no hits and is skipped entirely, per
// spec.md §6 ("empty hit set -> no line").
type Work func(Record) string

// Writer persists one already-ordered result line (no trailing newline
// included) to the output destination.
type Writer func(line string) error

// ReadError wraps a decoder failure; callers should map this to the
// reader-I/O exit code (12 per spec.md §7).
type ReadError struct{ Err error }

func (e *ReadError) Error() string { return e.Err.Error() }
func (e *ReadError) Unwrap() error { return e.Err }

// WriteError wraps a writer failure; callers should map this to the
// writer-I/O exit code (11 per spec.md §7).
type WriteError struct{ Err error }

func (e *WriteError) Error() string { return e.Err.Error() }
func (e *WriteError) Unwrap() error { return e.Err }

// Run drives the full producer/worker-pool/ordered-writer pipeline:
// decode feeds numWorkers goroutines running work, and writeLine receives
// every non-empty result in strict input order. A failure from decode or
// writeLine aborts the pipeline immediately; in-flight worker output need
// not be drained (spec.md §5's cancellation policy).
func Run(decode Decoder, numWorkers int, work Work, writeLine Writer) error {
	if numWorkers < 1 {
		numWorkers = 1
	}

	recordCh := make(chan Record, numWorkers*4)
	resultCh := make(chan result, numWorkers*4)

	done := make(chan struct{})

	var readErr error
	var wg sync.WaitGroup

	go func() {
		defer close(recordCh)
		for {
			rec, ok, err := decode()
			if err != nil {
				readErr = err
				return
			}
			if !ok {
				return
			}
			select {
			case recordCh <- rec:
			case <-done:
				return
			}
		}
	}()

	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()
			for rec := range recordCh {
				line := work(rec)
				select {
				case resultCh <- result{index: rec.Index, line: line}:
				case <-done:
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	pending := make(map[int]result)
	next := 0
	var writeErr error

	for r := range resultCh {
		if writeErr != nil {
			continue // drain remaining results without blocking workers
		}
		pending[r.index] = r
		for {
			ready, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if ready.line == "" {
				continue
			}
			if err := writeLine(ready.line); err != nil {
				writeErr = err
				close(done)
				break
			}
		}
	}

	if writeErr != nil {
		return &WriteError{Err: writeErr}
	}
	if readErr != nil {
		return &ReadError{Err: mtsverrors.FromIo(readErr)}
	}
	return nil
}
