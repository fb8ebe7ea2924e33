// mtsv-collapse merges one or more binning results files into a single
// canonicalized results stream, per spec.md §6's "collapse" tool.
//
// Usage: mtsv-collapse -o <out> [--mode taxid|taxid-gi] [--threads 4]
//                       [--edit-delta D] <file>...
package main

import (
	"os"

	"github.com/grailbio/base/log"
	flag "github.com/spf13/pflag"

	"github.com/FofanovLab/mtsv-tools/collapse"
)

const (
	exitOK          = 0
	exitMissingPath = 3
	exitWriterIoErr = 11
)

var (
	outFlag       = flag.StringP("output", "o", "", "Path to write the collapsed results (required)")
	modeFlag      = flag.String("mode", "taxid", "Reduction key: taxid or taxid-gi")
	threadsFlag   = flag.Int("threads", 4, "Number of worker threads for the external-sort stage")
	editDeltaFlag = flag.Int("edit-delta", 0, "Keep entries within this many edits of the read's minimum (0 disables the filter)")
	verboseFlag   = flag.BoolP("verbose", "v", false, "Enable debug logging")
)

func main() {
	flag.Parse()
	if *verboseFlag {
		log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	}

	inputs := flag.Args()
	if *outFlag == "" || len(inputs) == 0 {
		log.Error.Printf("-o/--output and at least one input file are required")
		os.Exit(exitMissingPath)
	}

	var mode collapse.Mode
	switch *modeFlag {
	case "taxid":
		mode = collapse.TaxId
	case "taxid-gi":
		mode = collapse.TaxIdGi
	default:
		log.Error.Printf("invalid --mode %q", *modeFlag)
		os.Exit(exitMissingPath)
	}

	for _, p := range inputs {
		if _, err := os.Stat(p); err != nil {
			log.Error.Printf("input file %s: %v", p, err)
			os.Exit(exitMissingPath)
		}
	}

	out, err := os.Create(*outFlag)
	if err != nil {
		log.Error.Printf("create %s: %v", *outFlag, err)
		os.Exit(exitMissingPath)
	}
	defer out.Close()

	tmpDir := os.TempDir()
	if err := collapse.RunParallel(inputs, mode, *editDeltaFlag, tmpDir, *threadsFlag, out); err != nil {
		log.Error.Printf("collapse failed: %v", err)
		os.Exit(exitWriterIoErr)
	}

	log.Info.Printf("collapsed %d input file(s) into %s", len(inputs), *outFlag)
	os.Exit(exitOK)
}
