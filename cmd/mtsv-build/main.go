// mtsv-build constructs an FM-index over a FASTA reference database, per
// spec.md §6's "build" tool.
//
// Usage: mtsv-build --fasta <path> --index <out> [--sa-sample k_sa]
//                    [--sample-interval k_occ] [--mapping <tsv>]
//                    [--skip-missing] [-v]
package main

import (
	"io"
	"os"

	"github.com/grailbio/base/log"
	flag "github.com/spf13/pflag"

	"github.com/FofanovLab/mtsv-tools/build"
	"github.com/FofanovLab/mtsv-tools/mapping"
	"github.com/FofanovLab/mtsv-tools/mtsverrors"
	"github.com/FofanovLab/mtsv-tools/reads"
)

// reader wraps f in a transparent gzip decoder when its contents are
// gzip-compressed, matching the --fasta/--fastq gzip auto-detection used
// by mtsv-bin.
func reader(f io.Reader) (io.Reader, error) {
	return reads.MaybeDecompress(f)
}

const (
	exitOK          = 0
	exitBuildError  = 1
	exitMissingPath = 3
	exitWriterIoErr = 11
	exitReaderIoErr = 12
)

var (
	fastaFlag       = flag.String("fasta", "", "Path to the FASTA reference database (required)")
	indexFlag       = flag.String("index", "", "Path to write the built index (required)")
	saSampleFlag    = flag.Uint32("sa-sample", 32, "Suffix array sampling interval (k_sa)")
	occSampleFlag   = flag.Uint32("sample-interval", 64, "Occ table checkpoint interval (k_occ)")
	mappingFlag     = flag.String("mapping", "", "Optional header->(gi,taxid) mapping TSV")
	skipMissingFlag = flag.Bool("skip-missing", false, "Skip references with no mapping entry instead of failing")
	verboseFlag     = flag.BoolP("verbose", "v", false, "Enable debug logging")
)

func main() {
	flag.Parse()
	if *verboseFlag {
		log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	}

	if *fastaFlag == "" || *indexFlag == "" {
		log.Error.Printf("--fasta and --index are required")
		os.Exit(exitMissingPath)
	}

	fasta, err := os.Open(*fastaFlag)
	if err != nil {
		log.Error.Printf("open %s: %v", *fastaFlag, err)
		os.Exit(exitMissingPath)
	}
	defer fasta.Close()
	faReader, err := reader(fasta)
	if err != nil {
		log.Error.Printf("%v", err)
		os.Exit(exitReaderIoErr)
	}

	var m mapping.Map
	if *mappingFlag != "" {
		mf, err := os.Open(*mappingFlag)
		if err != nil {
			log.Error.Printf("open %s: %v", *mappingFlag, err)
			os.Exit(exitMissingPath)
		}
		defer mf.Close()
		m, err = mapping.Parse(mf)
		if err != nil {
			log.Error.Printf("parse mapping file: %v", err)
			os.Exit(exitBuildError)
		}
	}

	out, err := os.Create(*indexFlag)
	if err != nil {
		log.Error.Printf("create %s: %v", *indexFlag, err)
		os.Exit(exitMissingPath)
	}
	defer out.Close()

	params := build.Params{
		SampleIntervalOcc: *occSampleFlag,
		SampleIntervalSA:  *saSampleFlag,
		Mapping:           m,
		SkipMissing:       *skipMissingFlag,
	}

	if err := build.WriteIndex(faReader, out, params); err != nil {
		if mtsverrors.Is(err, mtsverrors.Io) {
			log.Error.Printf("build failed: %v", err)
			os.Exit(exitWriterIoErr)
		}
		log.Error.Printf("build failed: %v", err)
		os.Exit(exitBuildError)
	}
	log.Info.Printf("index written to %s", *indexFlag)
	os.Exit(exitOK)
}
