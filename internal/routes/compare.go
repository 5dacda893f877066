package routes

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	diffimage "storefront-e2e/internal/diff/image"
	"storefront-e2e/internal/myhttp"
	"storefront-e2e/internal/storage"
	"strconv"
)

const maxUploadSize = 32 << 20

type CompareResponse struct {
	DiffData        string                `json:"diffData"`
	DiffPercentage  float64               `json:"diffPercentage"`
	DifferingPixels int64                 `json:"differingPixels"`
	TotalPixels     int64                 `json:"totalPixels"`
	Regions         []diffimage.Rectangle `json:"regions"`
}

// Compare diffs the uploaded "actual" image against either an uploaded
// "baseline" image or the stored baseline named by "baselineName".
func Compare(store storage.Storage, defaultThreshold float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			http.Error(w, fmt.Sprintf("invalid multipart form: %s", err), http.StatusBadRequest)
			return
		}

		threshold := defaultThreshold
		if v := r.FormValue("threshold"); v != "" {
			t, err := strconv.ParseFloat(v, 64)
			if err != nil {
				http.Error(w, fmt.Sprintf("invalid threshold: %s", v), http.StatusBadRequest)
				return
			}
			threshold = t
		}

		actual, err := formImage(r, "actual")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		result, err := compare(r.Context(), r, store, actual, threshold)
		if err != nil {
			writeCompareError(w, r, err)
			return
		}

		diffData, err := diffimage.EncodePNG(result.Image)
		if err != nil {
			myhttp.Logger(r.Context()).Error("failed to encode diff image", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		writeJSON(w, r, http.StatusOK, CompareResponse{
			DiffData:        base64.StdEncoding.EncodeToString(diffData),
			DiffPercentage:  result.Percentage(),
			DifferingPixels: result.DifferingPixels,
			TotalPixels:     result.TotalPixels,
			Regions:         result.Regions,
		})
	}
}

func compare(ctx context.Context, r *http.Request, store storage.Storage, actual image.Image, threshold float64) (*diffimage.DiffResult, error) {
	if name := r.FormValue("baselineName"); name != "" {
		comparer := &diffimage.Comparer{
			Store:     store,
			Threshold: threshold,
		}
		return comparer.CompareWithBaseline(ctx, actual, name)
	}

	baseline, err := formImage(r, "baseline")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", diffimage.ErrBaselineUndecodable, err)
	}
	return diffimage.Compare(actual, baseline, threshold)
}

func formImage(r *http.Request, field string) (image.Image, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("missing %s image: %w", field, err)
	}
	defer func(file multipart.File) {
		_ = file.Close()
	}(file)

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s image: %w", field, err)
	}
	img, err := diffimage.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s image: %w", field, err)
	}
	return img, nil
}

func writeCompareError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, diffimage.ErrDimensionMismatch):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, diffimage.ErrBaselineUndecodable), errors.Is(err, diffimage.ErrThresholdOutOfRange):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		myhttp.Logger(r.Context()).Error("failed to compare images", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		myhttp.Logger(r.Context()).Error("failed to encode response", "error", err)
	}
}
