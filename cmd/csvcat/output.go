package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// recordWriter receives records with their 1-based logical record number, which
// counts skipped blank records and treats a multi-line quoted record as one.
type recordWriter interface {
	Write(path string, recordNum int, record []string) error
	Flush() error
}

func newRecordWriter(format string, out io.Writer) (recordWriter, error) {
	bw := bufio.NewWriter(out)
	switch strings.ToLower(format) {
	case "", "tsv":
		return &tsvWriter{w: bw}, nil
	case "json":
		return &jsonWriter{w: bw, enc: json.NewEncoder(bw)}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

var tsvEscaper = strings.NewReplacer(`\`, `\\`, "\t", `\t`, "\n", `\n`, "\r", `\r`)

type tsvWriter struct {
	w *bufio.Writer
}

func (t *tsvWriter) Write(_ string, _ int, record []string) error {
	for i, field := range record {
		if i > 0 {
			if err := t.w.WriteByte('\t'); err != nil {
				return err
			}
		}
		if _, err := tsvEscaper.WriteString(t.w, field); err != nil {
			return err
		}
	}
	return t.w.WriteByte('\n')
}

func (t *tsvWriter) Flush() error { return t.w.Flush() }

type jsonRecord struct {
	File   string   `json:"file"`
	Record int      `json:"record"`
	Fields []string `json:"fields"`
}

type jsonWriter struct {
	w   *bufio.Writer
	enc *json.Encoder
}

func (j *jsonWriter) Write(path string, recordNum int, record []string) error {
	return j.enc.Encode(jsonRecord{File: path, Record: recordNum, Fields: record})
}

func (j *jsonWriter) Flush() error { return j.w.Flush() }
