// Package collapse implements the external-sort + k-way-merge collapser
// (component J of the specification): sorting each input results file by
// read-id via bounded-memory spill chunks, merging the sorted files with
// a min-tree ordered by read id, then full line text, then input index,
// and reducing every read-id's
// accumulated entries to one canonical output line, per spec.md §4.4.
//
// The spill/merge shape is grounded on
// cmd/bio-bam-sort/sorter/sort.go's Sorter/mergeLeaf/internalMergeShards,
// adapted from sam.Record byte keys to plain result-line strings, and
// reusing the same github.com/biogo/store/llrb tree for the merge step.
package collapse

import (
	"bufio"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/biogo/store/llrb"

	"github.com/FofanovLab/mtsv-tools/codec"
	"github.com/FofanovLab/mtsv-tools/mtsverrors"
)

// readIDKey extracts the read-id prefix of a result line (everything
// before the final ':'), so lines are ordered by read-id rather than by
// raw line text: a line comparison alone would misorder ids where one is
// a literal prefix of another (e.g. "r1" and "r10"), since ':' sorts
// after '0' in ASCII.
func readIDKey(line string) string {
	if idx := strings.LastIndex(line, ":"); idx >= 0 {
		return line[:idx]
	}
	return line
}

// Mode selects the collapser's reduction key.
type Mode int

const (
	// TaxId reduces to the minimum edit distance per TaxId.
	TaxId Mode = iota
	// TaxIdGi reduces to the minimum edit distance per (TaxId, Gi), with
	// the offset taken from whichever entry attains that minimum.
	TaxIdGi
)

func (m Mode) format() codec.Format {
	if m == TaxIdGi {
		return codec.Long
	}
	return codec.Default
}

// sortChunkBytes bounds the in-memory size of one sort batch before it is
// spilled to a temp shard, per spec.md §4.4 step 1's "chunks of <= C
// bytes (default ~128 MiB)".
const sortChunkBytes = 128 << 20

// SortFile external-sorts one results file by (read_id, line) into a
// single new sorted spill file (caller-owned; remove it when done),
// returning its path.
func SortFile(path, tmpDir string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", mtsverrors.Wrap(mtsverrors.Io, err, "open results file: "+path)
	}
	defer f.Close()

	var shardPaths []string
	var batch []string
	batchBytes := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		sort.Slice(batch, func(i, j int) bool {
			ki, kj := readIDKey(batch[i]), readIDKey(batch[j])
			if ki != kj {
				return ki < kj
			}
			return batch[i] < batch[j]
		})
		tmp, err := os.CreateTemp(tmpDir, "mtsv-collapse-*.shard")
		if err != nil {
			return mtsverrors.Wrap(mtsverrors.Io, err, "create sort shard temp file")
		}
		tmp.Close()
		w, err := newShardWriter(tmp.Name())
		if err != nil {
			return err
		}
		for _, line := range batch {
			if err := w.add(line); err != nil {
				return err
			}
		}
		if err := w.close(); err != nil {
			return err
		}
		shardPaths = append(shardPaths, tmp.Name())
		batch = nil
		batchBytes = 0
		return nil
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		batch = append(batch, line)
		batchBytes += len(line)
		if batchBytes >= sortChunkBytes {
			if err := flush(); err != nil {
				return "", err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", mtsverrors.Wrap(mtsverrors.Io, err, "scan results file: "+path)
	}
	if err := flush(); err != nil {
		return "", err
	}
	defer func() {
		for _, p := range shardPaths {
			os.Remove(p)
		}
	}()

	out, err := os.CreateTemp(tmpDir, "mtsv-collapse-sorted-*.shard")
	if err != nil {
		return "", mtsverrors.Wrap(mtsverrors.Io, err, "create sorted output temp file")
	}
	defer out.Close()
	w, err := newShardWriter(out.Name() + ".merged")
	if err != nil {
		return "", err
	}
	if err := mergeShardFiles(shardPaths, func(line string) error { return w.add(line) }); err != nil {
		return "", err
	}
	if err := w.close(); err != nil {
		return "", err
	}
	os.Remove(out.Name())
	return out.Name() + ".merged", nil
}

// mergeLeaf adapts a shardReader (or a plain line reader) into an
// llrb.Comparable, ordered first by the line's read-id prefix (everything
// before the final ':'), then by the full line text, then by seq (stable
// tiebreak among equal lines from different sources).
type mergeLeaf struct {
	seq  int
	line string
	next func() (string, bool, error)
	err  error
}

func (l *mergeLeaf) Compare(other llrb.Comparable) int {
	o := other.(*mergeLeaf)
	lk, ok := readIDKey(l.line), readIDKey(o.line)
	if lk != ok {
		if lk < ok {
			return -1
		}
		return 1
	}
	if l.line < o.line {
		return -1
	}
	if l.line > o.line {
		return 1
	}
	if l.seq != o.seq {
		return l.seq - o.seq
	}
	return 0
}

func (l *mergeLeaf) advance() bool {
	line, ok, err := l.next()
	if err != nil {
		l.err = err
		return false
	}
	if !ok {
		return false
	}
	l.line = line
	return true
}

// internalMerge drives an N-way merge over leaves (already pre-loaded
// with their first line), invoking callback with every line in sorted
// order. Mirrors sort.go's internalMergeShards shape using the same llrb
// tree, generalized to an arbitrary line source instead of a shard file.
func internalMerge(leaves []*mergeLeaf, callback func(line string) error) error {
	tree := llrb.Tree{}
	for _, l := range leaves {
		tree.Insert(l)
	}

	for tree.Len() > 0 {
		var top *mergeLeaf
		first := true
		tree.Do(func(item llrb.Comparable) bool {
			if first {
				top = item.(*mergeLeaf)
				first = false
			}
			return true
		})
		if err := callback(top.line); err != nil {
			return err
		}
		tree.DeleteMin()
		if top.advance() {
			tree.Insert(top)
		} else if top.err != nil {
			return top.err
		}
	}
	return nil
}

// mergeShardFiles merges a set of pre-sorted spill shard files into one
// sorted stream, fed to callback in order.
func mergeShardFiles(paths []string, callback func(line string) error) error {
	if len(paths) == 0 {
		return nil
	}
	readers := make([]*shardReader, len(paths))
	for i, p := range paths {
		r, err := newShardReader(p)
		if err != nil {
			return err
		}
		readers[i] = r
	}
	defer func() {
		for _, r := range readers {
			r.closeFile()
		}
	}()

	var leaves []*mergeLeaf
	for i, r := range readers {
		r := r // capture this iteration's reader; go.mod targets go1.21, pre-1.22 loop-variable semantics
		leaf := &mergeLeaf{seq: i, next: func() (string, bool, error) { ok, err := r.scan(); return r.line(), ok, err }}
		if leaf.advance() {
			leaves = append(leaves, leaf)
		} else if leaf.err != nil {
			return leaf.err
		}
	}
	return internalMerge(leaves, callback)
}

// applyDelta keeps the entries within delta edits of the minimum edit; a
// delta of 0 or less disables the filter and returns entries unchanged.
func applyDelta(entries []codec.Entry, delta int) []codec.Entry {
	if len(entries) == 0 || delta <= 0 {
		return entries
	}
	minEdit := entries[0].Edit
	for _, e := range entries[1:] {
		if e.Edit < minEdit {
			minEdit = e.Edit
		}
	}
	out := entries[:0:0]
	for _, e := range entries {
		if e.Edit <= minEdit+delta {
			out = append(out, e)
		}
	}
	return out
}

// sortFilesParallel external-sorts every input file, fanning the work out
// across up to threads worker goroutines (spec.md §4.4 step 1: "Files are
// sorted in parallel across up to t threads"), and returns the sorted
// paths in the same order as inputPaths regardless of completion order.
// On the first error, already-produced sorted files are still returned
// (for cleanup by the caller) alongside that error.
func sortFilesParallel(inputPaths []string, tmpDir string, threads int) ([]string, error) {
	if threads < 1 {
		threads = 1
	}
	if threads > len(inputPaths) {
		threads = len(inputPaths)
	}
	sortedPaths := make([]string, len(inputPaths))
	if threads <= 1 {
		for i, p := range inputPaths {
			sorted, err := SortFile(p, tmpDir)
			if err != nil {
				return sortedPaths, err
			}
			sortedPaths[i] = sorted
		}
		return sortedPaths, nil
	}

	type job struct {
		idx  int
		path string
	}
	jobs := make(chan job)
	errs := make(chan error, len(inputPaths))
	var wg sync.WaitGroup
	wg.Add(threads)
	for w := 0; w < threads; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				sorted, err := SortFile(j.path, tmpDir)
				if err != nil {
					errs <- err
					continue
				}
				sortedPaths[j.idx] = sorted
			}
		}()
	}
	for i, p := range inputPaths {
		jobs <- job{idx: i, path: p}
	}
	close(jobs)
	wg.Wait()
	close(errs)

	if err, ok := <-errs; ok {
		return sortedPaths, err
	}
	return sortedPaths, nil
}

// Run executes the full collapser over inputPaths: sort each input file
// sequentially (RunParallel takes a sort-stage worker count), merge the
// sorted files, reduce and emit to w. When delta > 0, entries more than
// delta edits above a read's minimum are dropped; delta <= 0 keeps all.
func Run(inputPaths []string, mode Mode, delta int, tmpDir string, w io.Writer) error {
	return RunParallel(inputPaths, mode, delta, tmpDir, 1, w)
}

// RunParallel is Run with an explicit sort-stage worker count.
func RunParallel(inputPaths []string, mode Mode, delta int, tmpDir string, threads int, w io.Writer) error {
	sortedPaths, err := sortFilesParallel(inputPaths, tmpDir, threads)
	defer func() {
		for _, p := range sortedPaths {
			if p != "" {
				os.Remove(p)
			}
		}
	}()
	if err != nil {
		return err
	}

	var curID string
	var entries []codec.Entry
	haveAny := false

	flush := func() error {
		if !haveAny {
			return nil
		}
		canon := codec.Canonicalize(entries, mode.format())
		canon = applyDelta(canon, delta)
		out := codec.Emit(curID, canon, mode.format())
		if out == "" {
			return nil
		}
		if _, err := w.Write([]byte(out + "\n")); err != nil {
			return mtsverrors.Wrap(mtsverrors.Io, err, "write collapsed result")
		}
		return nil
	}

	err = mergeShardFiles(sortedPaths, func(line string) error {
		parsed, err := codec.Parse(line)
		if err != nil {
			return err
		}
		if haveAny && parsed.ReadId != curID {
			if err := flush(); err != nil {
				return err
			}
			entries = nil
		}
		curID = parsed.ReadId
		haveAny = true
		entries = append(entries, parsed.Entries...)
		return nil
	})
	if err != nil {
		return err
	}
	return flush()
}
