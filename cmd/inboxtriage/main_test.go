package main

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/joshsymonds/inboxtriage/internal/triage"
)

func TestParseCLIFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    cliConfig
		wantErr string
	}{
		{
			name: "search",
			args: []string{"search", "-keyword", "invoice", "-max", "3"},
			want: cliConfig{envFile: ".env", command: "search", keyword: "invoice", maxResults: 3},
		},
		{
			name: "search default max",
			args: []string{"search", "-keyword", "invoice"},
			want: cliConfig{envFile: ".env", command: "search", keyword: "invoice", maxResults: triage.DefaultMaxResults},
		},
		{
			name: "action",
			args: []string{"action", "-action", "archive", "-continue-on-error", "a", "b"},
			want: cliConfig{envFile: ".env", command: "action", action: "archive", continueOnError: true, ids: []string{"a", "b"}},
		},
		{name: "no command", args: nil, wantErr: "missing command"},
		{name: "unknown command", args: []string{"purge"}, wantErr: "unknown command"},
		{name: "search without keyword", args: []string{"search"}, wantErr: "-keyword"},
		{name: "action without ids", args: []string{"action", "-action", "trash"}, wantErr: "message id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCLIFlags(tt.args)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPrintJSONIndents(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, triage.EmailItem{ID: "a"}); err != nil {
		t.Fatalf("printJSON() error: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"id\": \"a\"") {
		t.Fatalf("output not indented: %q", buf.String())
	}
}
