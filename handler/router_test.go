package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/wisdom-rag/repository"
	"github.com/tieubaoca/wisdom-rag/service"
	"github.com/tieubaoca/wisdom-rag/types"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeChatter struct {
	result types.AnswerResult
	err    error
	got    types.ChatRequest
}

func (f *fakeChatter) Chat(ctx context.Context, req types.ChatRequest) (types.AnswerResult, error) {
	f.got = req
	return f.result, f.err
}

type fakeIngester struct {
	result types.IngestResult
	err    error
	got    types.Document
}

func (f *fakeIngester) Ingest(ctx context.Context, doc types.Document) (types.IngestResult, error) {
	f.got = doc
	return f.result, f.err
}

type testServer struct {
	router   *gin.Engine
	chatter  *fakeChatter
	ingester *fakeIngester
	repo     repository.JobRepo
	dir      string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{
		chatter:  &fakeChatter{},
		ingester: &fakeIngester{},
		repo:     repository.NewMemoryJobRepo(),
		dir:      t.TempDir(),
	}
	files, err := service.NewFileService(s.dir, zap.NewNop())
	require.NoError(t, err)
	jobs := service.NewJobService(s.repo, s.ingester, service.JobConfig{
		PollMaxAttempts:  3,
		PollInitialDelay: time.Millisecond,
		PollMaxDelay:     time.Millisecond,
		PollTimeout:      time.Second,
	}, zap.NewNop())

	s.router = NewRouter(Handlers{
		Info:     NewInfoHandler("wisdom-rag", []string{"How do I handle exam stress?"}),
		Chat:     NewChatHandler(s.chatter, time.Second, zap.NewNop()),
		Upload:   NewUploadHandler(jobs, files, 1<<20, time.Second, zap.NewNop()),
		Document: NewDocumentHandler(files, zap.NewNop()),
	}, zap.NewNop())
	return s
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	var body types.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func uploadRequest(t *testing.T, fileName, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName)}
	h["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealthAndPresets(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"wisdom-rag"}`, w.Body.String())

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/presets", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"presets":["How do I handle exam stress?"]}`, w.Body.String())
}

func TestCorsPreflight(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodOptions, "/api/chat", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestChat(t *testing.T) {
	s := newTestServer(t)
	book := "Mind Power"
	s.chatter.result = types.AnswerResult{
		ID:         "a1",
		Answer:     types.Answer{Summary: "Be calm.", Steps: []string{"Breathe"}},
		Source:     types.Source{Book: &book},
		Confidence: types.Confidence{MatchedPrinciples: 1, TotalPrinciples: 2},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"How?","language":"mr","mode":"wisdom"}`))
	req.Header.Set("Content-Type", "application/json")
	w := s.do(req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.ChatRequest{Message: "How?", Language: "mr", Mode: "wisdom"}, s.chatter.got)
	assert.JSONEq(t, `{
		"id":"a1",
		"answer":{"summary":"Be calm.","steps":["Breathe"]},
		"source":{"book":"Mind Power","chapter":null,"page":null,"pdfUrl":null},
		"confidence":{"matchedPrinciples":1,"totalPrinciples":2}
	}`, w.Body.String())
}

func TestChat_Errors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{bad`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", decodeError(t, w).Message)

	s.chatter.err = types.NewInvalidInputError("Message is required")
	w = s.do(httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, types.ErrorResponse{Error: true, Message: "Message is required"}, decodeError(t, w))

	s.chatter.err = fmt.Errorf("synthesize: %w: 401 invalid key sk-123", types.ErrGenerationTransport)
	w = s.do(httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi"}`)))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "sk-123")
	assert.True(t, decodeError(t, w).Error)
}

func TestUploadDocument(t *testing.T) {
	s := newTestServer(t)
	s.ingester.result = types.IngestResult{FileName: "Mind_Power.pdf", ChunksIndexed: 4}

	w := s.do(uploadRequest(t, "Mind_Power.pdf", "application/pdf", []byte("%PDF-1.4 test")))

	require.Equal(t, http.StatusOK, w.Code)
	var resp types.UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "Mind_Power.pdf", resp.Document.FileName)
	assert.Equal(t, 4, resp.Document.ChunksIndexed)
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, service.MimeTypePDF, s.ingester.got.MimeType)

	matches, err := filepath.Glob(filepath.Join(s.dir, "Mind_Power_*.pdf"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/documents/jobs/"+resp.JobID+"?wait=true", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var job types.IngestionJob
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, types.JOB_STATUS_READY, job.Status)
}

func TestUploadDocument_SniffsMimeType(t *testing.T) {
	s := newTestServer(t)

	w := s.do(uploadRequest(t, "book.pdf", "application/octet-stream", []byte("%PDF-1.4 test")))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.MimeTypePDF, s.ingester.got.MimeType)
}

func TestUploadDocument_Errors(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", nil)
	w := s.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No file uploaded", decodeError(t, w).Message)

	w = s.do(uploadRequest(t, "big.pdf", "application/pdf", make([]byte, (1<<20)+1)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.ingester.err = fmt.Errorf("%w: No text extracted from document", types.ErrNoContent)
	w = s.do(uploadRequest(t, "blank.pdf", "application/pdf", []byte("%PDF-1.4")))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "No text extracted from document.", decodeError(t, w).Message)
}

func TestGetJob_NotFound(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/documents/jobs/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetJob_WaitTimesOut(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.repo.CreateJob(context.Background(), &types.IngestionJob{ID: "stuck", Status: types.JOB_STATUS_PROCESSING}))

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/documents/jobs/stuck?wait=true", nil))

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestServeDocument(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, "book_1700000000.pdf"), []byte("%PDF-1.4 body"), 0644))

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/pdf?name=book.pdf", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF-1.4 body", w.Body.String())

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/pdf?name=notes.txt", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/pdf?name=missing.pdf", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(fmt.Errorf("x: %w", types.ErrIndex)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}
