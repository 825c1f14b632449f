package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/joshsymonds/inboxtriage/internal/config"
	gc "github.com/joshsymonds/inboxtriage/internal/gmail"
	"github.com/joshsymonds/inboxtriage/internal/triage"
)

// fakeGmail is an in-memory stand-in for the Gmail REST API and the OAuth token endpoint.
type fakeGmail struct {
	mu        sync.Mutex
	messages  map[string][]*gmail.MessagePartHeader
	order     []string
	queries   []string
	maxResult []string
	metaQuery []string
	trashed   []string
	modified  map[string]*gmail.ModifyMessageRequest
	auth      []string
	refreshes int
}

func newFakeGmail() *fakeGmail {
	return &fakeGmail{
		messages: map[string][]*gmail.MessagePartHeader{
			"m1": {{Name: "From", Value: "alice@example.com"}, {Name: "Subject", Value: "Invoice 1"}},
			"m2": {{Name: "from", Value: "bob@example.com"}},
		},
		order:    []string{"m2", "m1"},
		modified: map[string]*gmail.ModifyMessageRequest{},
	}
}

func (f *fakeGmail) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.refreshes++
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"fresh-token","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc("GET /gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		f.mu.Lock()
		f.queries = append(f.queries, r.URL.Query().Get("q"))
		f.maxResult = append(f.maxResult, r.URL.Query().Get("maxResults"))
		f.mu.Unlock()
		resp := gmail.ListMessagesResponse{}
		for _, id := range f.order {
			resp.Messages = append(resp.Messages, &gmail.Message{Id: id})
		}
		writeJSON(w, resp)
	})
	mux.HandleFunc("GET /gmail/v1/users/me/messages/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		id := r.PathValue("id")
		headers, ok := f.messages[id]
		if !ok {
			writeAPIError(w, http.StatusNotFound, "Requested entity was not found.")
			return
		}
		f.mu.Lock()
		f.metaQuery = append(f.metaQuery, r.URL.RawQuery)
		f.mu.Unlock()
		writeJSON(w, gmail.Message{Id: id, Payload: &gmail.MessagePart{Headers: headers}})
	})
	mux.HandleFunc("POST /gmail/v1/users/me/messages/{id}/trash", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		id := r.PathValue("id")
		if _, ok := f.messages[id]; !ok {
			writeAPIError(w, http.StatusNotFound, "Requested entity was not found.")
			return
		}
		f.mu.Lock()
		f.trashed = append(f.trashed, id)
		f.mu.Unlock()
		writeJSON(w, gmail.Message{Id: id})
	})
	mux.HandleFunc("POST /gmail/v1/users/me/messages/{id}/modify", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		var req gmail.ModifyMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeAPIError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.mu.Lock()
		f.modified[r.PathValue("id")] = &req
		f.mu.Unlock()
		writeJSON(w, gmail.Message{Id: r.PathValue("id")})
	})
	return mux
}

func (f *fakeGmail) record(r *http.Request) {
	f.mu.Lock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	f.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":%q}}`, code, msg)
}

func newTestGoogleClient(t *testing.T, fake *fakeGmail) gc.Client {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	svc, err := gmail.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	if err != nil {
		t.Fatalf("gmail.NewService() error: %v", err)
	}
	return NewGoogleAPIClient(svc)
}

func TestGoogleClientList(t *testing.T) {
	fake := newFakeGmail()
	client := newTestGoogleClient(t, fake)

	ids, err := client.List(context.Background(), gc.Query{Raw: "subject:invoice"}, 10)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if !reflect.DeepEqual(ids, []gc.MessageID{"m2", "m1"}) {
		t.Fatalf("List() = %v", ids)
	}
	if fake.queries[0] != "subject:invoice" || fake.maxResult[0] != "10" {
		t.Fatalf("query = %q, maxResults = %q", fake.queries[0], fake.maxResult[0])
	}
}

func TestGoogleClientGetMetadata(t *testing.T) {
	fake := newFakeGmail()
	client := newTestGoogleClient(t, fake)

	meta, err := client.GetMetadata(context.Background(), "m1", []string{"From", "Subject"})
	if err != nil {
		t.Fatalf("GetMetadata() error: %v", err)
	}
	if meta.Header("subject") != "Invoice 1" {
		t.Errorf("subject = %q", meta.Header("subject"))
	}
	q := fake.metaQuery[0]
	for _, part := range []string{"format=metadata", "metadataHeaders=From", "metadataHeaders=Subject"} {
		if !strings.Contains(q, part) {
			t.Errorf("query %q missing %q", q, part)
		}
	}
}

func TestGoogleClientErrorsKeepAPIError(t *testing.T) {
	client := newTestGoogleClient(t, newFakeGmail())

	err := client.Trash(context.Background(), "missing")
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("error = %v, want *googleapi.Error in chain", err)
	}
	if gerr.Code != http.StatusNotFound {
		t.Fatalf("code = %d, want 404", gerr.Code)
	}
}

func TestGoogleClientMutations(t *testing.T) {
	fake := newFakeGmail()
	client := newTestGoogleClient(t, fake)

	if err := client.Trash(context.Background(), "m1"); err != nil {
		t.Fatalf("Trash() error: %v", err)
	}
	if err := client.Modify(context.Background(), "m2", gc.ArchiveOps()); err != nil {
		t.Fatalf("Modify() error: %v", err)
	}
	if !reflect.DeepEqual(fake.trashed, []string{"m1"}) {
		t.Errorf("trashed = %v", fake.trashed)
	}
	req := fake.modified["m2"]
	if req == nil || !reflect.DeepEqual(req.RemoveLabelIds, []string{"INBOX"}) || len(req.AddLabelIds) != 0 {
		t.Errorf("modify request = %+v", req)
	}
}

func TestTriageServiceEndToEnd(t *testing.T) {
	fake := newFakeGmail()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	payload := fmt.Sprintf(`{"refresh_token":"r","client_id":"c","client_secret":"s","token_uri":%q}`, srv.URL+"/token")
	if err := os.WriteFile(filepath.Join(dir, "gmail-credentials.json"), []byte(payload), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{
		SecretName:       "gmail-credentials",
		CredentialSource: config.SourceLocal,
		LocalDir:         dir,
	}

	svc, stop := NewTriageService(cfg, slogDiscard(), option.WithEndpoint(srv.URL+"/"))
	defer stop()

	res, err := svc.Search(context.Background(), "invoice", 5)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	want := []triage.EmailItem{
		{ID: "m2", Sender: "bob@example.com", Subject: ""},
		{ID: "m1", Sender: "alice@example.com", Subject: "Invoice 1"},
	}
	if !reflect.DeepEqual(res.Results, want) {
		t.Fatalf("Results = %+v, want %+v", res.Results, want)
	}

	out, err := svc.Apply(context.Background(), triage.ActionRequest{EmailIDs: []string{"m1", "m2"}, Action: "archive"})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if out.Succeeded() != 2 {
		t.Fatalf("Succeeded() = %d", out.Succeeded())
	}

	for _, h := range fake.auth {
		if h != "Bearer fresh-token" {
			t.Fatalf("Authorization = %q, want refreshed bearer token", h)
		}
	}
	if fake.refreshes != 2 {
		t.Fatalf("token refreshes = %d, want one per request", fake.refreshes)
	}
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
