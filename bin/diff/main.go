package main

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"storefront-e2e/internal/config"
	diffimage "storefront-e2e/internal/diff/image"
	"storefront-e2e/internal/storage"
	"time"
)

type DiffOutput struct {
	DiffPath        string                `json:"diffPath"`
	DiffPercentage  float64               `json:"diffPercentage"`
	DifferingPixels int64                 `json:"differingPixels"`
	TotalPixels     int64                 `json:"totalPixels"`
	Regions         []diffimage.Rectangle `json:"regions"`
}

func diffKey(actualPath string, baselineName string, now time.Time) string {
	h := sha256.New()
	h.Write([]byte(actualPath + baselineName))
	hash := fmt.Sprintf("%x", h.Sum(nil))[:16]
	return fmt.Sprintf("diff/%s/%s.png", hash, now.Format("20060102150405"))
}

func calculate(ctx context.Context, s storage.Storage, format string, threshold float64, actual []byte, baselineName string) (*diffimage.DiffResult, error) {
	actualImage, err := diffimage.Decode(actual)
	if err != nil {
		return nil, fmt.Errorf("failed to decode actual image: %w", err)
	}

	comparer := &diffimage.Comparer{
		Store:     s,
		Threshold: threshold,
	}
	switch format {
	case "pixel":
	case "rectangle":
		differ, err := diffimage.NewRectangleDiff(threshold)
		if err != nil {
			return nil, err
		}
		comparer.Differ = differ
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
	return comparer.CompareWithBaseline(ctx, actualImage, baselineName)
}

func main() {
	var directory string
	var format string
	var threshold float64
	var maxDiffPercentage float64
	flag.StringVar(&directory, "directory", config.EnvOrDefaultValue("DIRECTORY", "visual-baselines"), "Baseline directory for file storage")
	flag.StringVar(&format, "format", config.EnvOrDefaultValue("FORMAT", "pixel"), "Diff image format (pixel or rectangle)")
	flag.Float64Var(&threshold, "threshold", config.EnvOrDefaultValue("THRESHOLD", diffimage.DefaultThreshold), "Per-pixel tolerance between 0 and 1")
	flag.Float64Var(&maxDiffPercentage, "max-diff-percentage", config.EnvOrDefaultValue("MAX_DIFF_PERCENTAGE", 100.0), "Exit with status 1 when the difference is larger")

	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		log.Fatalf("actual image, baseline name not specified")
	}
	actualPath := args[0]
	baselineName := args[1]

	ctx := context.Background()
	s, err := storage.New(ctx, storage.ConfigFromEnv(directory))
	if err != nil {
		log.Fatalf("Failed to create storage backend: %v", err)
	}

	actual, err := os.ReadFile(actualPath)
	if err != nil {
		log.Fatalf("Failed to read actual image: %v", err)
	}

	result, err := calculate(ctx, s, format, threshold, actual, baselineName)
	if err != nil {
		log.Fatalf("Failed to compare images: %v", err)
	}

	diffData, err := diffimage.EncodePNG(result.Image)
	if err != nil {
		log.Fatalf("Failed to encode diff image: %v", err)
	}

	output := DiffOutput{
		DiffPercentage:  result.Percentage(),
		DifferingPixels: result.DifferingPixels,
		TotalPixels:     result.TotalPixels,
		Regions:         result.Regions,
	}
	if result.DifferingPixels > 0 {
		// Read-only stores still report the comparison.
		output.DiffPath, err = s.Put(ctx, diffKey(actualPath, baselineName, time.Now()), diffData)
		if err != nil {
			log.Printf("Failed to save diff image: %v", err)
		}
	}

	j, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal result: %v", err)
	}
	fmt.Println(string(j))

	if output.DiffPercentage > maxDiffPercentage {
		os.Exit(1)
	}
}
