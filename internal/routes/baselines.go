package routes

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	diffimage "storefront-e2e/internal/diff/image"
	"storefront-e2e/internal/myhttp"
	"storefront-e2e/internal/storage"
)

func GetBaseline(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")

		data, err := store.Get(r.Context(), name)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			myhttp.Logger(r.Context()).Error("failed to get baseline", "name", name, "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", http.DetectContentType(data))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

// PutBaseline stores the request body as the baseline called name. Only
// decodable images are accepted.
func PutBaseline(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")

		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadSize))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, err := diffimage.Decode(data); err != nil {
			http.Error(w, fmt.Sprintf("invalid baseline image: %s", err), http.StatusBadRequest)
			return
		}

		location, err := store.Put(r.Context(), name, data)
		if err != nil {
			if errors.Is(err, storage.ErrReadOnly) {
				http.Error(w, err.Error(), http.StatusMethodNotAllowed)
				return
			}
			myhttp.Logger(r.Context()).Error("failed to put baseline", "name", name, "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Location", location)
		w.WriteHeader(http.StatusCreated)
	}
}

func ListBaselines(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys, err := store.List(r.Context(), r.URL.Query().Get("prefix"))
		if err != nil {
			if errors.Is(err, storage.ErrReadOnly) {
				http.Error(w, err.Error(), http.StatusMethodNotAllowed)
				return
			}
			myhttp.Logger(r.Context()).Error("failed to list baselines", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if keys == nil {
			keys = []string{}
		}
		writeJSON(w, r, http.StatusOK, keys)
	}
}
