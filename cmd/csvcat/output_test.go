package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/charmap"

	"github.com/Belphemur/csvreader/internal/csvreader"
)

func TestTSVWriter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w, err := newRecordWriter("tsv", &buf)
	if err != nil {
		t.Fatalf("newRecordWriter: %v", err)
	}

	_ = w.Write("a.csv", 1, []string{"a", "tab\there", "new\nline", `back\slash`})
	_ = w.Write("a.csv", 2, []string{""})
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	want := "a\ttab\\there\tnew\\nline\tback\\\\slash\n\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w, err := newRecordWriter("JSON", &buf)
	if err != nil {
		t.Fatalf("newRecordWriter: %v", err)
	}

	_ = w.Write("a.csv", 3, []string{"Привет", "x"})
	_ = w.Flush()

	want := `{"file":"a.csv","record":3,"fields":["Привет","x"]}` + "\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestNewRecordWriter_Unknown(t *testing.T) {
	t.Parallel()
	if _, err := newRecordWriter("xml", &bytes.Buffer{}); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestCatFile(t *testing.T) {
	t.Parallel()
	content, err := charmap.Windows1251.NewEncoder().Bytes([]byte("id,name\n\n1,Привет\n"))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "legacy.csv")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	reader := csvreader.New(csvreader.WithIgnoreBlankRecords(true))
	var buf bytes.Buffer
	w, _ := newRecordWriter("tsv", &buf)

	if err := catFile(reader, path, w, zerolog.Nop()); err != nil {
		t.Fatalf("catFile: %v", err)
	}
	_ = w.Flush()

	if got, want := buf.String(), "id\tname\n1\tПривет\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if reader.IsOpen() {
		t.Error("catFile should close the reader")
	}
}

func TestCatFile_Missing(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w, _ := newRecordWriter("tsv", &buf)

	err := catFile(csvreader.New(), filepath.Join(t.TempDir(), "missing.csv"), w, zerolog.Nop())
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if buf.Len() != 0 {
		t.Errorf("Expected no output, got %q", buf.String())
	}
}

func TestCatFile_JSONRecordNumbers(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "multi.csv")
	if err := os.WriteFile(path, []byte("a,\"x\ny\"\n\nb,z\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	w, _ := newRecordWriter("json", &buf)
	if err := catFile(csvreader.New(csvreader.WithIgnoreBlankRecords(true)), path, w, zerolog.Nop()); err != nil {
		t.Fatalf("catFile: %v", err)
	}
	_ = w.Flush()

	want := `{"file":"` + path + `","record":1,"fields":["a","x\ny"]}` + "\n" +
		`{"file":"` + path + `","record":3,"fields":["b","z"]}` + "\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}
