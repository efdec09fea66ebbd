package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tanq16/segdl/internal/utils"
)

func TestRunDownloadsAndReportsFailures(t *testing.T) {
	data := bytes.Repeat([]byte("segdl"), 50_000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "data.bin", time.Time{}, bytes.NewReader(data))
	}))
	defer srv.Close()

	dir := t.TempDir()
	settings.Set("output_dir", dir)
	settings.Set("no_progress", true)
	settings.Set("threads", 4)
	settings.Set("segment_size", 64*1024)
	t.Cleanup(func() {
		for _, key := range []string{"output_dir", "no_progress", "threads", "segment_size"} {
			settings.Set(key, nil)
		}
	})

	if code := run([]utils.DownloadEntry{{URL: srv.URL + "/data.bin"}}); code != 0 {
		t.Fatalf("run() = %d, want 0", code)
	}
	got, err := os.ReadFile(filepath.Join(dir, "data.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("downloaded file differs from served content")
	}

	entries := []utils.DownloadEntry{
		{URL: srv.URL + "/data.bin", OutputPath: "copy.bin"},
		{URL: "gopher://example.com/x"},
	}
	if code := run(entries); code != 1 {
		t.Errorf("run() with an unsupported scheme = %d, want 1", code)
	}
	if _, err := os.Stat(filepath.Join(dir, "x")); !os.IsNotExist(err) {
		t.Errorf("file created for rejected download: %v", err)
	}
}

func TestFlagKey(t *testing.T) {
	if got := flagKey("segment-size"); got != "segment_size" {
		t.Errorf("flagKey = %q", got)
	}
}

func TestRunKeepsSameNamedDownloadsApart(t *testing.T) {
	first := bytes.Repeat([]byte("A"), 200_000)
	second := bytes.Repeat([]byte("B"), 100_000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := first
		if r.URL.Path == "/b/data.bin" {
			data = second
			if r.Method == http.MethodHead {
				time.Sleep(300 * time.Millisecond)
			}
		}
		http.ServeContent(w, r, "data.bin", time.Time{}, bytes.NewReader(data))
	}))
	defer srv.Close()

	dir := t.TempDir()
	settings.Set("output_dir", dir)
	settings.Set("no_progress", true)
	settings.Set("segment_size", 32*1024)
	t.Cleanup(func() {
		for _, key := range []string{"output_dir", "no_progress", "segment_size"} {
			settings.Set(key, nil)
		}
	})

	entries := []utils.DownloadEntry{
		{URL: srv.URL + "/a/data.bin"},
		{URL: srv.URL + "/b/data.bin"},
	}
	if code := run(entries); code != 0 {
		t.Fatalf("run() = %d, want 0", code)
	}
	for name, want := range map[string][]byte{"data.bin": first, "data-(1).bin": second} {
		got, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("%s has %d bytes, not the content served for it", name, len(got))
		}
	}
}
