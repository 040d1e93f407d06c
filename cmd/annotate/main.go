// Command annotate converts object-detection annotation formats and
// validates dataset directories before training.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/banshee-data/annotate/internal/convert"
	"github.com/banshee-data/annotate/internal/runlog"
	"github.com/banshee-data/annotate/internal/verify"
)

const version = "0.2.0"

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "csv2voc":
		handleCSV2VOC(args)
	case "obb2voc":
		handleOBB2VOC(args)
	case "verify":
		handleVerify(args)
	case "history":
		handleHistory(args)
	case "version":
		fmt.Printf("annotate version %s\n", version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`annotate - annotation conversion and dataset verification

Usage: annotate <command> [options]

Commands:
  csv2voc    Convert a tab-delimited CSV annotation export to Pascal VOC XML
  obb2voc    Convert a YOLO-OBB dataset tree (train/test/valid) to Pascal VOC
  verify     Cross-check an images directory against a VOC annotations directory
  history    Show past verification runs recorded with verify -log-db
  version    Show annotate version
  help       Show this help message

Examples:
  # Convert a CSV export, then sanity-check the pairing
  annotate csv2voc -csv annotations.csv -out data/annotations -images data/images

  # Convert a YOLO-OBB tree into the training layout
  annotate obb2voc -source downloads/yolo -target-images data/images -target-annotations data/annotations

  # Verify a dataset and keep the result in a local history database
  annotate verify -images data/images -annotations data/annotations -log-db runs.db

  # Full statistics over every matched file, with an HTML label chart
  annotate verify -images data/images -annotations data/annotations -full -chart labels.html

Exit status is 0 when every check passes and 1 on any hard failure; warnings
never affect the exit status.`)
}

func handleCSV2VOC(args []string) {
	fs := flag.NewFlagSet("csv2voc", flag.ExitOnError)
	csvPath := fs.String("csv", "", "Path to the CSV annotation export (required)")
	outDir := fs.String("out", "", "Directory to write XML files into (required)")
	imagesDir := fs.String("images", "", "Optional images directory for a pairing check")
	fs.Parse(args)

	if *csvPath == "" || *outDir == "" {
		fmt.Fprintln(os.Stderr, "Error: -csv and -out are required")
		fs.Usage()
		os.Exit(1)
	}

	run, err := convert.CSVToVOC(*csvPath, *outDir, *imagesDir)
	if err != nil {
		log.Fatalf("Conversion failed: %v", err)
	}

	fmt.Printf("[OK] read %d annotations for %d images (%d rows skipped)\n",
		run.Parse.Records, run.Parse.Images, len(run.Parse.Skipped))
	for _, skip := range run.Parse.Skipped {
		fmt.Printf("[WARN] skipped record: %s\n", skip)
	}
	for _, img := range run.Parse.SizeConflicts {
		fmt.Printf("[WARN] rows disagree on image size for %s (last value kept)\n", img)
	}
	fmt.Printf("[OK] wrote %d XML files to %s\n", run.Written, *outDir)
	for _, base := range run.WriteFailures {
		fmt.Printf("[WARN] failed to write annotation for %s\n", base)
	}

	if *imagesDir != "" {
		fmt.Printf("[OK] %d image/annotation pairs matched\n", run.Matched)
		if len(run.MissingImages) > 0 {
			fmt.Printf("[WARN] %d XMLs without images\n", len(run.MissingImages))
		}
		if len(run.MissingXMLs) > 0 {
			fmt.Printf("[WARN] %d images without XMLs\n", len(run.MissingXMLs))
		}
	}

	if len(run.WriteFailures) > 0 {
		os.Exit(1)
	}
}

func handleOBB2VOC(args []string) {
	fs := flag.NewFlagSet("obb2voc", flag.ExitOnError)
	source := fs.String("source", "", "YOLO dataset root containing train/test/valid (required)")
	targetImages := fs.String("target-images", "data/images", "Target images directory")
	targetAnnotations := fs.String("target-annotations", "data/annotations", "Target annotations directory")
	width := fs.Int("width", 640, "Declared image width")
	height := fs.Int("height", 480, "Declared image height")
	fs.Parse(args)

	if *source == "" {
		fmt.Fprintln(os.Stderr, "Error: -source is required")
		fs.Usage()
		os.Exit(1)
	}

	run, err := convert.SplitDataset(*source, *targetImages, *targetAnnotations, *width, *height)
	if err != nil {
		log.Fatalf("Conversion failed: %v", err)
	}

	for _, split := range run.Splits {
		fmt.Printf("[%s] converted %d, skipped %d\n", split.Split, split.Converted, split.Skipped)
	}
	fmt.Printf("Total converted: %d\n", run.Converted)
	fmt.Printf("Total skipped:   %d\n", run.Skipped)
}

func handleVerify(args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	imagesDir := fs.String("images", "data/images", "Images directory")
	annotationsDir := fs.String("annotations", "data/annotations", "Annotations directory")
	sample := fs.Int("sample", verify.DefaultSampleSize, "Annotation files to deep-inspect")
	minImages := fs.Int("min-images", 0, "Warn when matched pairs fall below this count")
	labels := fs.String("labels", "", "Comma-separated expected labels; others are flagged")
	full := fs.Bool("full", false, "Inspect every matched file and report box statistics")
	strict := fs.Bool("strict", false, "Treat geometry and decode warnings as failures")
	chart := fs.String("chart", "", "Write the label histogram as an HTML chart")
	logDB := fs.String("log-db", "", "Record this run in a sqlite history database")
	configPath := fs.String("config", "", "JSON options file (flags override)")
	fs.Parse(args)

	opts := verify.Options{
		ImagesDir:      *imagesDir,
		AnnotationsDir: *annotationsDir,
		SampleSize:     *sample,
		MinMatched:     *minImages,
		ExpectedLabels: splitLabels(*labels),
		FullStats:      *full,
		Strict:         *strict,
		ChartPath:      *chart,
	}
	if *configPath != "" {
		fileOpts, err := verify.LoadFileOptions(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		fileOpts.Apply(&opts)
	}

	report, err := verify.Run(opts)
	if err != nil {
		log.Fatalf("Verification failed: %v", err)
	}

	report.Render(os.Stdout)

	if *logDB != "" {
		if err := recordRun(*logDB, report); err != nil {
			// History is a convenience; a broken log database must not mask
			// the verification result.
			log.Printf("Failed to record run: %v", err)
		}
	}

	if !report.Success() {
		os.Exit(1)
	}
}

func splitLabels(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func recordRun(path string, report *verify.Report) error {
	db, err := runlog.NewDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	runID, err := db.RecordRun(runlog.Run{
		ImagesDir:      report.ImagesDir,
		AnnotationsDir: report.AnnotationsDir,
		Matched:        len(report.Matched),
		OnlyImages:     len(report.OnlyImages),
		OnlyXMLs:       len(report.OnlyXMLs),
		Inspected:      report.Inspected,
		ParseErrors:    report.ParseErrors,
		ObjectTotal:    report.ObjectTotal,
		Labels:         report.LabelHistogram(),
		Success:        report.Success(),
	})
	if err != nil {
		return err
	}
	fmt.Printf("Recorded run %s in %s\n", runID, path)
	return nil
}

func handleHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	dbPath := fs.String("db", "runs.db", "Run history database")
	limit := fs.Int("limit", 20, "Maximum runs to show")
	fs.Parse(args)

	db, err := runlog.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open run history: %v", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(*limit)
	if err != nil {
		log.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return
	}

	for _, r := range runs {
		status := "OK"
		if !r.Success {
			status = "FAIL"
		}
		fmt.Printf("%s  %-4s  matched=%d only_images=%d only_xmls=%d parse_errors=%d objects=%d  %s\n",
			r.Timestamp.Format("2006-01-02 15:04:05"), status,
			r.Matched, r.OnlyImages, r.OnlyXMLs, r.ParseErrors, r.ObjectTotal,
			r.ImagesDir)
	}
}
