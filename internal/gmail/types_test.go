package gmail

import "testing"

func TestMessageMetaHeader(t *testing.T) {
	meta := MessageMeta{
		ID: "m1",
		Headers: []Header{
			{Name: "from", Value: "alice@example.com"},
			{Name: "SUBJECT", Value: "Invoice 42"},
			{Name: "Subject", Value: "ignored duplicate"},
		},
	}

	tests := []struct {
		name string
		key  string
		want string
	}{
		{"lowercase stored", HeaderFrom, "alice@example.com"},
		{"uppercase stored", HeaderSubject, "Invoice 42"},
		{"missing", "Date", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := meta.Header(tt.key); got != tt.want {
				t.Errorf("Header(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestSubjectQuery(t *testing.T) {
	tests := []struct {
		keyword string
		want    string
	}{
		{"invoice", "subject:invoice"},
		{"weekly report", "subject:(weekly report)"},
		{`"exact"`, `subject:"exact"`},
	}
	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			if got := SubjectQuery(tt.keyword).Raw; got != tt.want {
				t.Errorf("SubjectQuery(%q) = %q, want %q", tt.keyword, got, tt.want)
			}
		})
	}
}

func TestArchiveOps(t *testing.T) {
	ops := ArchiveOps()
	if len(ops.AddLabels) != 0 {
		t.Fatalf("archive should add no labels, got %v", ops.AddLabels)
	}
	if len(ops.RemoveLabels) != 1 || ops.RemoveLabels[0] != LabelInbox {
		t.Fatalf("archive should remove only INBOX, got %v", ops.RemoveLabels)
	}
}
