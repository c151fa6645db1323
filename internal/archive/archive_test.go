package archive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
)

func TestFSSink_Put(t *testing.T) {
	src := filepath.Join(t.TempDir(), "artifact.parquet")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	dir := t.TempDir()
	sink, err := NewFSSink(dir)
	if err != nil {
		t.Fatalf("NewFSSink: %v", err)
	}

	remoteID, err := sink.Put(context.Background(), src)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if remoteID != filepath.Join(dir, "artifact.parquet") {
		t.Errorf("remoteID = %q", remoteID)
	}

	data, err := os.ReadFile(remoteID)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("archived content = %q, want %q", data, "payload")
	}
}

func TestFSSink_PutMissingSource(t *testing.T) {
	sink, err := NewFSSink(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSSink: %v", err)
	}
	if _, err := sink.Put(context.Background(), "/nonexistent/artifact.parquet"); err == nil {
		t.Error("Put of missing file = nil error, want error")
	}
}

func TestHTTPSink_Put(t *testing.T) {
	var gotPath string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		gotPath = r.URL.Path
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = buf
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	src := filepath.Join(t.TempDir(), "artifact.parquet")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	sink := NewHTTPSink(resty.New(), srv.URL, "banknifty_data/")
	remoteID, err := sink.Put(context.Background(), src)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if gotPath != "/banknifty_data/artifact.parquet" {
		t.Errorf("request path = %q", gotPath)
	}
	if string(gotBody) != "payload" {
		t.Errorf("uploaded body = %q", gotBody)
	}
	if remoteID != srv.URL+"/banknifty_data/artifact.parquet" {
		t.Errorf("remoteID = %q", remoteID)
	}
}

func TestHTTPSink_PutServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	src := filepath.Join(t.TempDir(), "artifact.parquet")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	sink := NewHTTPSink(resty.New(), srv.URL, "")
	if _, err := sink.Put(context.Background(), src); err == nil {
		t.Error("Put with 403 response = nil error, want error")
	}
}
