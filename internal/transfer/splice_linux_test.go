//go:build linux

package transfer

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	segdlhttp "github.com/tanq16/segdl/internal/downloaders/http"
	"github.com/tanq16/segdl/internal/utils"
)

func patterned(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*31 + i/251)
	}
	return data
}

func TestSpliceFromPipe(t *testing.T) {
	data := patterned(300_000)
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	go func() {
		w.Write(data)
		w.Close()
	}()

	path := sizedFile(t, int64(len(data)))
	dst := openAt(t, path, 0)
	rc, err := r.SyscallConn()
	if err != nil {
		t.Fatal(err)
	}
	counter := &countingCounter{}
	moved, err := splice(rc, int(dst.Fd()), int64(len(data)), counter)
	if err != nil {
		t.Fatalf("splice: %v", err)
	}
	if moved != int64(len(data)) || counter.total.Load() != moved {
		t.Errorf("moved %d, counter %d; want %d", moved, counter.total.Load(), len(data))
	}
	got, _ := os.ReadFile(path)
	if !bytes.Equal(got, data) {
		t.Error("spliced file content differs from source")
	}
}

func TestZeroCopyShortSourceViolatesInvariant(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	go func() {
		w.Write(patterned(1000))
		w.Close()
	}()

	path := sizedFile(t, 5000)
	stream := &utils.Stream{Prefix: []byte("xy"), Body: r}
	counter := &countingCounter{}
	n, err := New(StrategySplice, 0).Copy(stream, openAt(t, path, 0), 5000, counter)
	if !errors.Is(err, utils.ErrSpliceInvariant) {
		t.Fatalf("Copy error = %v, want ErrSpliceInvariant", err)
	}
	if n != 1002 || counter.total.Load() != 1002 {
		t.Errorf("copied %d, counter %d; want 1002", n, counter.total.Load())
	}
}

func TestStrategiesProduceIdenticalFiles(t *testing.T) {
	data := patterned(2_500_000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "data.bin", time.Time{}, bytes.NewReader(data))
	}))
	defer server.Close()

	loc, err := utils.ParseLocation(server.URL + "/data.bin")
	if err != nil {
		t.Fatal(err)
	}
	provider := segdlhttp.Default()

	outputs := map[Strategy][]byte{}
	for _, strategy := range []Strategy{StrategyBuffered, StrategySplice} {
		path := sizedFile(t, int64(len(data)))
		rec := utils.NewRecord(0, utils.Header{Location: loc, Path: path, Size: int64(len(data))}, 1_000_000)
		e := New(strategy, 64*1024)
		for _, seg := range rec.Segments {
			seg.Start()
			_, err := e.FetchRange(context.Background(), provider, loc, seg, openAt(t, path, seg.Offset))
			seg.Finish(err)
			if err != nil {
				t.Fatalf("%s: segment at %d: %v", strategy, seg.Offset, err)
			}
		}
		if !rec.Complete() {
			t.Fatalf("%s: record incomplete: %d of %d", strategy, rec.Downloaded(), rec.Header.Size)
		}
		outputs[strategy], _ = os.ReadFile(path)
	}
	if !bytes.Equal(outputs[StrategyBuffered], outputs[StrategySplice]) {
		t.Fatal("buffered and splice outputs differ")
	}
	if !bytes.Equal(outputs[StrategySplice], data) {
		t.Fatal("splice output differs from source")
	}
}
