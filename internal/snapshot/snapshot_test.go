package snapshot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		baseURL string
		date    string
		want    string
	}{
		{
			name:   "explicit source wins",
			source: "/data/report.txt",
			want:   "/data/report.txt",
		},
		{
			name:    "derived from base url and date",
			baseURL: "https://snapshots.example.com",
			date:    "20260102",
			want:    "https://snapshots.example.com/report_20260102.txt",
		},
		{
			name:    "trailing slash trimmed",
			baseURL: "https://snapshots.example.com/",
			date:    "20260102",
			want:    "https://snapshots.example.com/report_20260102.txt",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.source, tt.baseURL, tt.date); got != tt.want {
				t.Errorf("Resolve = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	if err := os.WriteFile(path, []byte("  Total: 1234.56 USDT\n\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "Total: 1234.56 USDT" {
		t.Errorf("Load = %q, want trimmed text", got)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("\nTotal: 99.00 USDT\n"))
	}))
	defer srv.Close()

	got, err := Load(context.Background(), srv.URL+"/report_20260102.txt")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "Total: 99.00 USDT" {
		t.Errorf("Load = %q, want trimmed body", got)
	}
}

func TestLoadFromURLNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := Load(context.Background(), srv.URL+"/missing.txt"); err == nil {
		t.Fatal("expected error for 404 response")
	}
}
