package storage_test

import (
	"context"
	"errors"
	"storefront-e2e/internal/storage"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// exercise runs the behaviour every writable backend shares.
func exercise(t *testing.T, s storage.Storage) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "baselines/missing.png"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	for _, key := range []string{"baselines/login.png", "baselines/inventory.png", "reports/summary.json"} {
		if _, err := s.Put(ctx, key, []byte(key)); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	got, err := s.Get(ctx, "baselines/login.png")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("baselines/login.png", string(got)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	keys, err := s.List(ctx, "baselines/")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"baselines/inventory.png", "baselines/login.png"}, keys); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	if err := s.Delete(ctx, "baselines/login.png"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "baselines/login.png"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	keys, err = s.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"baselines/inventory.png", "reports/summary.json"}, keys); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestFileStorage(t *testing.T) {
	t.Parallel()

	s, err := storage.NewFileStorage(context.Background(), storage.FileConfig{Directory: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	exercise(t, s)
}

func TestFileStorageRejectsEscapingKeys(t *testing.T) {
	t.Parallel()

	s, err := storage.NewFileStorage(context.Background(), storage.FileConfig{Directory: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"../outside.png", "/etc/passwd", ""} {
		if _, err := s.Put(context.Background(), key, []byte("x")); err == nil {
			t.Errorf("expected %q to be rejected", key)
		}
	}
}

func TestFileStorageListOfMissingDirectory(t *testing.T) {
	t.Parallel()

	s, err := storage.NewFileStorage(context.Background(), storage.FileConfig{Directory: t.TempDir() + "/absent"})
	if err != nil {
		t.Fatal(err)
	}
	keys, err := s.List(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 0 {
		t.Errorf("expected no keys, got %v", keys)
	}
}

func TestMemoryStorage(t *testing.T) {
	t.Parallel()

	exercise(t, storage.NewMemoryStorage())
}

func TestMemoryStorageCopiesData(t *testing.T) {
	t.Parallel()

	s := storage.NewMemoryStorage()
	data := []byte("baseline")
	if _, err := s.Put(context.Background(), "k", data); err != nil {
		t.Fatal(err)
	}
	data[0] = 'X'

	got, err := s.Get(context.Background(), "k")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("baseline", string(got)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestNew(t *testing.T) {
	type in struct {
		config storage.Config
	}

	type want struct {
		wantErrorString string
	}

	tests := []struct {
		name string
		in   in
		want want
	}{
		{
			"file",
			in{storage.Config{Kind: "file", File: storage.FileConfig{Directory: "/tmp"}}},
			want{""},
		},
		{
			"memory",
			in{storage.Config{Kind: "memory"}},
			want{""},
		},
		{
			"s3 without bucket",
			in{storage.Config{Kind: "s3"}},
			want{"S3 bucket is not specified"},
		},
		{
			"http without url",
			in{storage.Config{Kind: "http"}},
			want{"baseline URL is not specified"},
		},
		{
			"unknown",
			in{storage.Config{Kind: "gcs"}},
			want{"unknown storage kind: gcs"},
		},
	}
	for _, tt := range tests {
		name := tt.name
		in := tt.in
		want := tt.want
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := storage.New(context.Background(), in.config)
			got := ""
			if err != nil {
				got = err.Error()
			}
			if diff := cmp.Diff(want.wantErrorString, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("STORAGE", "s3")
	t.Setenv("S3_BUCKET", "baselines")
	t.Setenv("S3_ENDPOINT_URL", "http://minio:9000")
	t.Setenv("DIRECTORY", "/var/baselines")

	got := storage.ConfigFromEnv("visual-baselines")
	want := storage.Config{
		Kind: "s3",
		File: storage.FileConfig{Directory: "/var/baselines"},
		S3:   storage.S3Config{Bucket: "baselines", EndpointURL: "http://minio:9000"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
