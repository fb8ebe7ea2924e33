// mtsv-bin assigns each read in a FASTA/FASTQ stream to every taxon whose
// reference contains an approximate match within the configured edit rate,
// per spec.md §6's "bin" tool.
//
// Usage: mtsv-bin (--fasta|--fastq) <reads> --index <idx> --results <out>
//                  [--threads 4] [--edit-rate 0.13] [--seed-size 18]
//                  [--seed-interval 15] [--min-seed 0.015] [--max-hits 2000]
//                  [--tune-max-hits 200] [--max-assignments K]
//                  [--max-candidates K] [--read-offset 0]
//                  [--output-format default|long] [--force-overwrite] [-v]
package main

import (
	"io"
	"os"

	"github.com/grailbio/base/log"
	flag "github.com/spf13/pflag"

	"github.com/FofanovLab/mtsv-tools/codec"
	"github.com/FofanovLab/mtsv-tools/corpus"
	"github.com/FofanovLab/mtsv-tools/fmindex"
	"github.com/FofanovLab/mtsv-tools/pipeline"
	"github.com/FofanovLab/mtsv-tools/query"
	"github.com/FofanovLab/mtsv-tools/reads"
	"github.com/FofanovLab/mtsv-tools/resume"
)

const (
	exitOK          = 0
	exitQueryError  = 2
	exitMissingPath = 3
	exitResumeError = 4
	exitWriterIoErr = 11
	exitReaderIoErr = 12
)

var (
	fastaFlag        = flag.String("fasta", "", "Path to a FASTA read file")
	fastqFlag        = flag.String("fastq", "", "Path to a FASTQ read file")
	indexFlag        = flag.String("index", "", "Path to the built index (required)")
	resultsFlag      = flag.String("results", "", "Path to write binning results (required)")
	threadsFlag      = flag.Int("threads", 4, "Number of worker goroutines")
	editRateFlag     = flag.Float64("edit-rate", 0.13, "Fraction of read length allowed as edit distance")
	seedSizeFlag     = flag.Int("seed-size", 18, "Seed length in bases")
	seedIntervalFlag = flag.Int("seed-interval", 15, "Base spacing between harvested seeds")
	minSeedFlag      = flag.Float64("min-seed", 0.015, "Minimum fraction of seeds a candidate bin must retain")
	maxHitsFlag      = flag.Int("max-hits", 2000, "Discard a seed outright once its SA interval exceeds this size")
	tuneMaxHitsFlag  = flag.Int("tune-max-hits", 200, "Double the seed gap once a seed's SA interval exceeds this size")
	maxAssignFlag    = flag.Int("max-assignments", 0, "Stop after this many taxon assignments per read (0 = unlimited)")
	maxCandFlag      = flag.Int("max-candidates", 0, "Stop after checking this many candidates per read (0 = unlimited)")
	readOffsetFlag   = flag.Int("read-offset", 0, "Additional read offset applied on top of any computed resume offset")
	outputFormatFlag = flag.String("output-format", "default", "Result line format: default or long")
	forceOverwrite   = flag.Bool("force-overwrite", false, "Overwrite --results instead of resuming from it")
	verboseFlag      = flag.BoolP("verbose", "v", false, "Enable debug logging")
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
	if readsPath == "" || *indexFlag == "" || *resultsFlag == "" {
		log.Error.Printf("--index, --results, and one of --fasta/--fastq are required")
		os.Exit(exitMissingPath)
	}

	var format codec.Format
	switch *outputFormatFlag {
	case "default":
		format = codec.Default
	case "long":
		format = codec.Long
	default:
		log.Error.Printf("invalid --output-format %q", *outputFormatFlag)
		os.Exit(exitMissingPath)
	}

	indexFile, err := os.Open(*indexFlag)
	if err != nil {
		log.Error.Printf("open index %s: %v", *indexFlag, err)
		os.Exit(exitMissingPath)
	}
	defer indexFile.Close()

	log.Info.Printf("loading index %s...", *indexFlag)
	idx, err := fmindex.Read(indexFile)
	if err != nil {
		log.Error.Printf("load index: %v", err)
		os.Exit(exitQueryError)
	}
	fm := fmindex.New(idx.BWT, idx.Less, idx.Occ)
	cp := &corpus.Corpus{Sequence: idx.Sequence, Bins: make([]corpus.Bin, len(idx.Bins))}
	for i, b := range idx.Bins {
		cp.Bins[i] = corpus.Bin{Gi: b.Gi, TaxId: b.TaxId, Start: b.Start, End: b.End}
	}

	params := query.Params{
		EditFreq:             *editRateFlag,
		SeedLength:           *seedSizeFlag,
		SeedGap:              *seedIntervalFlag,
		MinSeedsPercent:      *minSeedFlag,
		MaxHits:              *maxHitsFlag,
		TuneMaxHits:          *tuneMaxHitsFlag,
		MaxCandidatesChecked: *maxCandFlag,
		MaxAssignments:       *maxAssignFlag,
	}

	baseOffset := *readOffsetFlag
	openFlags := os.O_WRONLY | os.O_CREATE
	if *forceOverwrite {
		openFlags |= os.O_TRUNC
	} else if _, err := os.Stat(*resultsFlag); err == nil {
		resultsForScan, err := os.Open(*resultsFlag)
		if err != nil {
			log.Error.Printf("open existing results for resume scan: %v", err)
			os.Exit(exitResumeError)
		}
		reader, closer, err := openReads(readsPath, isFastq)
		if err != nil {
			resultsForScan.Close()
			log.Error.Printf("open reads for resume scan: %v", err)
			os.Exit(exitResumeError)
		}
		computed, err := resume.Offset(resultsForScan, reader, *readOffsetFlag)
		resultsForScan.Close()
		closer.Close()
		if err != nil {
			log.Error.Printf("compute resume offset: %v", err)
			os.Exit(exitResumeError)
		}
		baseOffset = computed
		openFlags |= os.O_APPEND
		log.Info.Printf("resuming at read index %d", baseOffset)
	} else {
		openFlags |= os.O_TRUNC
	}

	results, err := os.OpenFile(*resultsFlag, openFlags, 0644)
	if err != nil {
		log.Error.Printf("open results file %s: %v", *resultsFlag, err)
		os.Exit(exitMissingPath)
	}
	defer results.Close()

	reader, closer, err := openReads(readsPath, isFastq)
	if err != nil {
		log.Error.Printf("open reads file %s: %v", readsPath, err)
		os.Exit(exitMissingPath)
	}
	defer closer.Close()

	// Skip the first baseOffset records, matching spec.md §4.3's resume
	// contract: processing begins at last_index+1 plus the user addend.
	for i := 0; i < baseOffset; i++ {
		if _, err := reader.Next(); err != nil {
			if err == io.EOF {
				break
			}
			log.Error.Printf("skip to resume offset: %v", err)
			os.Exit(exitReaderIoErr)
		}
	}

	index := baseOffset
	decode := func() (pipeline.Record, bool, error) {
		rec, err := reader.Next()
		if err == io.EOF {
			return pipeline.Record{}, false, nil
		}
		if err != nil {
			return pipeline.Record{}, false, err
		}
		r := pipeline.Record{Index: index, Id: rec.Id, Seq: rec.Seq}
		index++
		return r, true, nil
	}

	work := func(rec pipeline.Record) string {
		folded := corpus.FoldSequence(append([]byte(nil), rec.Seq...))
		hits, err := query.Run(fm, idx.SA, cp, folded, params)
		if err != nil {
			// candidate.ErrBinOverrun means the loaded index itself is
			// corrupt; this affects every read, not just this one, so
			// there is no useful way to keep the pipeline running.
			log.Error.Printf("query read %q: %v", rec.Id, err)
			os.Exit(exitQueryError)
		}
		entries := codec.Canonicalize(codec.FromHits(hits), format)
		return codec.Emit(rec.Id, entries, format)
	}

	writeLine := func(line string) error {
		_, err := results.Write([]byte(line + "\n"))
		return err
	}

	if err := pipeline.Run(decode, *threadsFlag, work, writeLine); err != nil {
		if e, ok := err.(*pipeline.WriteError); ok {
			log.Error.Printf("write results: %v", e)
			os.Exit(exitWriterIoErr)
		}
		if e, ok := err.(*pipeline.ReadError); ok {
			log.Error.Printf("read reads: %v", e)
			os.Exit(exitReaderIoErr)
		}
		log.Error.Printf("binning failed: %v", err)
		os.Exit(exitQueryError)
	}

	log.Info.Printf("binning complete")
	os.Exit(exitOK)
}
