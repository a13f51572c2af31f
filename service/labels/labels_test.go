package labels

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	got := Parse("Energy Story\r\n  Earth Alive  \n\n\nGoing Viral\n")
	want := []string{"Energy Story", "Earth Alive", "Going Viral"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.txt")
	if err := os.WriteFile(path, []byte("a\nb\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 labels, got %v", got)
	}
}

func TestLoadFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/sc_exhibit/labels.txt" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("Climate Changed\nFuture Makers\n"))
	}))
	defer srv.Close()

	got, err := Load(context.Background(), srv.URL+"/models/sc_exhibit/labels.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"Climate Changed", "Future Makers"}) {
		t.Errorf("unexpected labels %v", got)
	}

	if _, err := Load(context.Background(), srv.URL+"/missing.txt"); err == nil {
		t.Error("expected error for a 404 source")
	}
}
