package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestPrintTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxy.log")
	content := "one\ntwo\nthree\nfour\nfive\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		n    int
		want string
	}{
		{name: "last three", n: 3, want: "three\nfour\nfive\n"},
		{name: "more than file", n: 10, want: content},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := printTail(&out, path, tt.n); err != nil {
				t.Fatalf("printTail() error = %v", err)
			}
			if out.String() != tt.want {
				t.Errorf("printTail() = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestPrintTail_MissingFile(t *testing.T) {
	var out bytes.Buffer
	if err := printTail(&out, filepath.Join(t.TempDir(), "nope.log"), 5); err == nil {
		t.Fatal("expected error for missing log file")
	}
}
