package api

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ppb-analytics/ppbtree/internal/config"
	"github.com/ppb-analytics/ppbtree/internal/docstore"
	"github.com/ppb-analytics/ppbtree/internal/pipeline"
)

const testAPIKey = "test-secret"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := docstore.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(store, log, pipeline.Options{WorkerCount: 1})
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	cfg := config.Config{
		APIKey:         testAPIKey,
		MaxUploadBytes: 10 << 20,
		AnthropicModel: "claude-test",
	}
	return NewServer(orch, store, nil, nil, log, cfg)
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	return req
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

// sampleDocx builds a small DOCX with one entity heading and a body
// paragraph.
func sampleDocx(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	doc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"` +
		` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><w:body>` +
		`<w:p><w:pPr><w:pStyle w:val="HCh"/></w:pPr><w:r><w:t>1.&#9;General Assembly</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>1.1&#9;The Assembly considered the item.</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func multipartUpload(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &body, mw.FormDataContentType()
}

func TestHealth_NoAuth(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("health = %d %s", rec.Code, rec.Body.String())
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, httptest.NewRequest("GET", "/api/documents", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no auth: code = %d", rec.Code)
	}

	req := httptest.NewRequest("GET", "/api/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	if rec := do(t, s, req); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad key: code = %d", rec.Code)
	}

	req = httptest.NewRequest("GET", "/api/documents", nil)
	if rec := do(t, s, authed(req)); rec.Code != http.StatusOK {
		t.Errorf("good key: code = %d", rec.Code)
	}
}

func ingestAndWait(t *testing.T, s *Server, filename string, data []byte) string {
	t.Helper()
	body, contentType := multipartUpload(t, "file", filename, data)
	req := httptest.NewRequest("POST", "/api/ingest", body)
	req.Header.Set("Content-Type", contentType)
	rec := do(t, s, authed(req))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("ingest = %d %s", rec.Code, rec.Body.String())
	}
	var accepted struct {
		JobID   string `json:"job_id"`
		PollURL string `json:"poll_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &accepted); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := do(t, s, authed(httptest.NewRequest("GET", accepted.PollURL, nil)))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d %s", rec.Code, rec.Body.String())
		}
		var snap pipeline.JobSnapshot
		if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
			t.Fatal(err)
		}
		switch snap.Status {
		case pipeline.StatusCompleted:
			return snap.DocID
		case pipeline.StatusFailed, pipeline.StatusPartial, pipeline.StatusDuplicateSkipped:
			t.Fatalf("unexpected terminal status %q: %+v", snap.Status, snap)
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("ingest did not complete")
	return ""
}

func TestIngestFlow(t *testing.T) {
	s := newTestServer(t)
	docID := ingestAndWait(t, s, "A_80_6_Sect02.docx", sampleDocx(t))

	rec := do(t, s, authed(httptest.NewRequest("GET", "/api/documents", nil)))
	if !strings.Contains(rec.Body.String(), docID) {
		t.Errorf("list missing document: %s", rec.Body.String())
	}

	rec = do(t, s, authed(httptest.NewRequest("GET", "/api/documents/"+docID, nil)))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "A_80_6_Sect02.docx") {
		t.Errorf("get = %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, authed(httptest.NewRequest("GET", "/api/documents/"+docID+"/tree", nil)))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "frontmatter") {
		t.Errorf("tree = %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, authed(httptest.NewRequest("GET", "/api/documents/"+docID+"/entities", nil)))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "General Assembly") {
		t.Errorf("entities = %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, authed(httptest.NewRequest("GET", "/api/documents/"+docID+"/report", nil)))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "# A_80_6_Sect02.docx") {
		t.Errorf("report = %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, authed(httptest.NewRequest("GET", "/api/documents/"+docID+"/report?format=html", nil)))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<h1>") {
		t.Errorf("html report = %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, authed(httptest.NewRequest("DELETE", "/api/documents/"+docID, nil)))
	if rec.Code != http.StatusOK {
		t.Errorf("delete = %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, s, authed(httptest.NewRequest("GET", "/api/documents/"+docID, nil)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d", rec.Code)
	}
}

func TestIngestRejectsNonDocx(t *testing.T) {
	s := newTestServer(t)
	body, contentType := multipartUpload(t, "file", "notes.txt", []byte("plain text"))
	req := httptest.NewRequest("POST", "/api/ingest", body)
	req.Header.Set("Content-Type", contentType)
	rec := do(t, s, authed(req))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("code = %d %s", rec.Code, rec.Body.String())
	}
}

func TestBatchIngest(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for i, name := range []string{"one.docx", "two.txt"} {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		if i == 0 {
			fw.Write(sampleDocx(t))
		} else {
			fw.Write([]byte("nope"))
		}
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/api/ingest/batch", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := do(t, s, authed(req))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("batch = %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Jobs []map[string]any `json:"jobs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Jobs) != 2 {
		t.Fatalf("jobs = %+v", resp.Jobs)
	}
	if _, ok := resp.Jobs[0]["job_id"]; !ok {
		t.Errorf("docx upload rejected: %+v", resp.Jobs[0])
	}
	if _, ok := resp.Jobs[1]["error"]; !ok {
		t.Errorf("txt upload accepted: %+v", resp.Jobs[1])
	}
}

func TestJobStatusNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, authed(httptest.NewRequest("GET", "/api/ingest/nope/status", nil)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %d", rec.Code)
	}
}

func TestRelevanceUnavailable(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("POST", "/api/relevance", strings.NewReader(`{"pairs":[]}`))
	rec := do(t, s, authed(req))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d %s", rec.Code, rec.Body.String())
	}
}

func TestLLMStatsUnavailable(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, authed(httptest.NewRequest("GET", "/api/stats/llm", nil)))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d", rec.Code)
	}
}

func TestDocumentNotFound(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{
		"/api/documents/missing",
		"/api/documents/missing/tree",
		"/api/documents/missing/entities",
		"/api/documents/missing/report",
	} {
		rec := do(t, s, authed(httptest.NewRequest("GET", path, nil)))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: code = %d", path, rec.Code)
		}
	}
	rec := do(t, s, authed(httptest.NewRequest("DELETE", "/api/documents/missing", nil)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete: code = %d", rec.Code)
	}
}
