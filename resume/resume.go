// Package resume computes the restart offset for an interrupted binning
// run: the index, within the input read stream, of the first record that
// has not yet been written to an existing results file, per spec.md §4.3
// ("Resume") and the original mtsv-resume-point.rs.
package resume

import (
	"bufio"
	"io"
	"strings"

	"github.com/FofanovLab/mtsv-tools/mtsverrors"
	"github.com/FofanovLab/mtsv-tools/reads"
)

// ReadIdsFromResults collects every read-id already present in a results
// file (one id per line, taken from the substring before the final ':',
// matching the codec's line grammar).
func ReadIdsFromResults(r io.Reader) (map[string]bool, error) {
	ids := make(map[string]bool)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		idx := strings.LastIndex(line, ":")
		if idx < 0 {
			return nil, mtsverrors.New(mtsverrors.InvalidHeader, "result line missing read id: "+line)
		}
		readID := line[:idx]
		if readID == "" {
			return nil, mtsverrors.New(mtsverrors.InvalidHeader, "result line has empty read id: "+line)
		}
		ids[readID] = true
	}
	if err := scanner.Err(); err != nil {
		return nil, mtsverrors.Wrap(mtsverrors.Io, err, "reading results file")
	}
	return ids, nil
}

// OffsetFromReader scans every record from reader, tracking the *last*
// record index whose id is present in ids, and returns one past that
// index (0 if no record matched).
func OffsetFromReader(reader reads.Reader, ids map[string]bool) (int, error) {
	lastIdx := -1
	idx := 0
	for {
		rec, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		if ids[rec.Id] {
			lastIdx = idx
		}
		idx++
	}
	return lastIdx + 1, nil
}

// Offset computes the full resume offset: the computed last-matching-
// index-plus-one from the input stream, plus the user-supplied
// readOffset addend (spec.md §4.3: "The user-supplied --read-offset is
// added to the computed resume offset").
func Offset(results io.Reader, reader reads.Reader, readOffset int) (int, error) {
	ids, err := ReadIdsFromResults(results)
	if err != nil {
		return 0, err
	}
	base, err := OffsetFromReader(reader, ids)
	if err != nil {
		return 0, err
	}
	return base + readOffset, nil
}
