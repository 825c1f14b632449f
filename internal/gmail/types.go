package gmail

import (
	"strings"
	"unicode"
)

type MessageID string
type LabelID string

// LabelInbox is the system label archiving removes.
const LabelInbox LabelID = "INBOX"

// HeaderFrom and HeaderSubject are the only headers search ever requests.
const (
	HeaderFrom    = "From"
	HeaderSubject = "Subject"
)

type Header struct {
	Name  string
	Value string
}

// MessageMeta is a metadata-only view of a message; bodies are never fetched.
type MessageMeta struct {
	ID      MessageID
	Headers []Header
}

// Header returns the first header whose name matches case-insensitively, or "".
func (m MessageMeta) Header(name string) string {
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

type ModifyOps struct {
	AddLabels    []LabelID
	RemoveLabels []LabelID
}

// ArchiveOps removes a message from the inbox without deleting it.
func ArchiveOps() ModifyOps {
	return ModifyOps{RemoveLabels: []LabelID{LabelInbox}}
}

type Query struct {
	Raw string // Gmail query string, already formed (e.g., `subject:invoice`)
}

// SubjectQuery matches messages whose Subject header contains keyword.
// Multi-word keywords are grouped so every word binds to the subject operator.
func SubjectQuery(keyword string) Query {
	if strings.IndexFunc(keyword, unicode.IsSpace) >= 0 {
		return Query{Raw: "subject:(" + keyword + ")"}
	}
	return Query{Raw: "subject:" + keyword}
}
