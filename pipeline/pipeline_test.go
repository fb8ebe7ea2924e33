package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decoderOver(n int) Decoder {
	i := 0
	return func() (Record, bool, error) {
		if i >= n {
			return Record{}, false, nil
		}
		r := Record{Index: i, Id: fmt.Sprintf("r%d", i)}
		i++
		return r, true, nil
	}
}

// Output must be emitted in input order regardless of worker count or
// processing-time jitter, per spec.md §5's ordering guarantee.
func TestRunPreservesInputOrder(t *testing.T) {
	var mu sync.Mutex
	var got []string

	work := func(r Record) string {
		// No artificial delay: with 8 workers, completion order is left to
		// the scheduler, and the writer must still restore input order.
		return fmt.Sprintf("%d:%s", r.Index, r.Id)
	}
	writeLine := func(line string) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, line)
		return nil
	}

	require.NoError(t, Run(decoderOver(50), 8, work, writeLine))

	want := make([]string, 50)
	for i := range want {
		want[i] = fmt.Sprintf("%d:r%d", i, i)
	}
	assert.Equal(t, want, got)
}

func TestRunSkipsEmptyResults(t *testing.T) {
	var got []string
	work := func(r Record) string {
		if r.Index%2 == 0 {
			return ""
		}
		return r.Id
	}
	writeLine := func(line string) error {
		got = append(got, line)
		return nil
	}
	require.NoError(t, Run(decoderOver(6), 2, work, writeLine))
	assert.Equal(t, []string{"r1", "r3", "r5"}, got)
}

func TestRunPropagatesReaderError(t *testing.T) {
	wantErr := errors.New("disk fell off")
	decode := func() (Record, bool, error) { return Record{}, false, wantErr }
	err := Run(decode, 2, func(Record) string { return "" }, func(string) error { return nil })
	require.Error(t, err)
	var readErr *ReadError
	assert.ErrorAs(t, err, &readErr)
}

func TestRunPropagatesWriterError(t *testing.T) {
	wantErr := errors.New("disk full")
	writeLine := func(string) error { return wantErr }
	err := Run(decoderOver(5), 2, func(r Record) string { return r.Id }, writeLine)
	require.Error(t, err)
	var writeErr *WriteError
	assert.ErrorAs(t, err, &writeErr)
}

func TestRunDefaultsToOneWorker(t *testing.T) {
	var got []string
	writeLine := func(line string) error {
		got = append(got, line)
		return nil
	}
	require.NoError(t, Run(decoderOver(3), 0, func(r Record) string { return r.Id }, writeLine))
	assert.Equal(t, []string{"r0", "r1", "r2"}, got)
}
