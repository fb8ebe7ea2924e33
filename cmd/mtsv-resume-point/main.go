// mtsv-resume-point prints the read offset a binning run should resume
// from, given an existing (possibly partial) results file and the
// original read stream, per spec.md §4.3's resume contract and the
// original mtsv-resume-point.rs. mtsv-bin computes this same offset
// internally when resuming into an existing --results file; this binary
// exists for operational parity with the original's standalone tool and
// for inspecting a resume point without starting a run.
//
// Usage: mtsv-resume-point (--fasta|--fastq) <reads> --results <out>
//                           [--read-offset 0]
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/grailbio/base/log"
	flag "github.com/spf13/pflag"

	"github.com/FofanovLab/mtsv-tools/reads"
	"github.com/FofanovLab/mtsv-tools/resume"
)

const (
	exitOK          = 0
	exitMissingPath = 3
	exitResumeError = 4
)

var (
	fastaFlag      = flag.String("fasta", "", "Path to a FASTA read file")
	fastqFlag      = flag.String("fastq", "", "Path to a FASTQ read file")
	resultsFlag    = flag.String("results", "", "Path to an existing (possibly partial) results file (required)")
	readOffsetFlag = flag.Int("read-offset", 0, "Additional read offset applied on top of the computed resume offset")
	verboseFlag    = flag.BoolP("verbose", "v", false, "Enable debug logging")
)

func openReads(path string, isFastq bool) (reads.Reader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	r, err := reads.MaybeDecompress(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if isFastq {
		return reads.NewFastqReader(r), f, nil
	}
	return reads.NewFastaReader(r), f, nil
}

func main() {
	flag.Parse()
	if *verboseFlag {
		log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	}

	isFastq := *fastqFlag != ""
	readsPath := *fastaFlag
	if isFastq {
		readsPath = *fastqFlag
	}
	if readsPath == "" || *resultsFlag == "" {
		log.Error.Printf("--results and one of --fasta/--fastq are required")
		os.Exit(exitMissingPath)
	}

	results, err := os.Open(*resultsFlag)
	if err != nil {
		log.Error.Printf("open results %s: %v", *resultsFlag, err)
		os.Exit(exitMissingPath)
	}
	defer results.Close()

	reader, closer, err := openReads(readsPath, isFastq)
	if err != nil {
		log.Error.Printf("open reads %s: %v", readsPath, err)
		os.Exit(exitMissingPath)
	}
	defer closer.Close()

	offset, err := resume.Offset(results, reader, *readOffsetFlag)
	if err != nil {
		log.Error.Printf("compute resume offset: %v", err)
		os.Exit(exitResumeError)
	}

	fmt.Println(offset)
	os.Exit(exitOK)
}
