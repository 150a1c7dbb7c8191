package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/provpack/internal/application/handlers"
	"github.com/ersonp/provpack/internal/domain/entities"
	"github.com/ersonp/provpack/internal/domain/mocks"
	"github.com/ersonp/provpack/internal/domain/provpack"
	"github.com/ersonp/provpack/internal/domain/services"
	"github.com/ersonp/provpack/internal/domain/validation"
	"github.com/ersonp/provpack/internal/infrastructure/logger"
)

type testEnv struct {
	router *gin.Engine
	store  *mocks.CaseStore
	pages  *mocks.PageSource
	ext    *mocks.Extractor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	v, err := validation.New()
	require.NoError(t, err)

	store := mocks.NewCaseStore()
	pages := mocks.NewPageSource(map[int][]byte{
		1: []byte("\xff\xd8\xff\xe0 page one"),
		2: []byte("\xff\xd8\xff\xe0 page two"),
	})
	ext := &mocks.Extractor{Result: mocks.MeyerExtraction()}
	summary := &mocks.SummaryRenderer{Data: []byte("%PDF-1.4")}
	builder := services.NewCaseBuilder(services.WithIDGenerator(mocks.SequentialIDs("id")))
	log := logger.NewNop()

	router := NewRouter(RouterConfig{
		Packets:      handlers.NewPacketHandler(services.NewPacketLocator(), pages, ext, v),
		Reviews:      handlers.NewReviewHandler(builder, v, store, log),
		Exports:      handlers.NewExportHandler(store, provpack.NewAssembler(pages, summary), log),
		Cases:        handlers.NewCaseHandler(store),
		Validator:    v,
		Logger:       log,
		AllowOrigins: []string{"http://localhost:3000"},
	})
	return &testEnv{router: router, store: store, pages: pages, ext: ext}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error
}

func (e *testEnv) approveMeyer(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/review/approve", map[string]any{
		"packetId":      mocks.MeyerPacketID,
		"extractedData": mocks.MeyerExtraction(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp approveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.CaseID
}

func TestHealthcheck(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthcheck", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestLocate(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/locator", map[string]any{"mhg": "2322/60"})
	require.Equal(t, http.StatusOK, rec.Code)
	var loc services.Location
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loc))
	assert.Equal(t, mocks.MeyerPacketID, loc.PacketID)
	assert.Equal(t, []int{1, 2, 3}, loc.SuggestedPages)

	rec = env.do(t, http.MethodPost, "/api/locator", map[string]any{"mhg": "2322/60", "year": 1961})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loc))
	assert.Equal(t, "fs:tab:1961:mhg-2322-60", loc.PacketID)
}

func TestLocate_BadRequest(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body any
	}{
		{name: "missing reference", body: map[string]any{"year": 1960}},
		{name: "blank reference", body: map[string]any{"mhg": "  "}},
		{name: "negative year", body: map[string]any{"mhg": "1/60", "year": -4}},
		{name: "malformed json", body: "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/locator", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "bad_request", decodeError(t, rec).Code)
		})
	}
}

func TestListImages(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/images?packetId="+mocks.MeyerPacketID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp imagesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, mocks.MeyerPacketID, resp.PacketID)
	assert.Equal(t, []pageLink{
		{Page: 1, URL: "/api/images/fs:tab:1960:mhg-2322-60/1"},
		{Page: 2, URL: "/api/images/fs:tab:1960:mhg-2322-60/2"},
	}, resp.Pages)

	rec = env.do(t, http.MethodGet, "/api/images", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/images/"+mocks.MeyerPacketID+"/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, env.pages.Pages[1], rec.Body.Bytes())

	rec = env.do(t, http.MethodGet, "/api/images/"+mocks.MeyerPacketID+"/9", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "page_not_found", decodeError(t, rec).Code)

	rec = env.do(t, http.MethodGet, "/api/images/"+mocks.MeyerPacketID+"/cover", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExtract(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/extract/j294", map[string]any{
		"packetId": mocks.MeyerPacketID,
		"pages":    []int{1, 2},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var x entities.Extraction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &x))
	assert.Equal(t, *mocks.MeyerExtraction(), x)
	assert.Equal(t, []int{1, 2}, env.ext.LastPages)
}

func TestExtract_Errors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/extract/j294", map[string]any{"pages": []int{1}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	bad := mocks.MeyerExtraction()
	bad.Citations[0].Confidence = 1.4
	env.ext.Result = bad
	rec = env.do(t, http.MethodPost, "/api/extract/j294", map[string]any{"packetId": mocks.MeyerPacketID})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	apiErr := decodeError(t, rec)
	assert.Equal(t, "invalid_input", apiErr.Code)
	require.Len(t, apiErr.Violations, 1)
	assert.Equal(t, "citations[0].confidence", apiErr.Violations[0].Path)

	env.ext.Result = nil
	env.ext.Err = errors.New("model unavailable")
	rec = env.do(t, http.MethodPost, "/api/extract/j294", map[string]any{"packetId": mocks.MeyerPacketID})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestApprove(t *testing.T) {
	env := newTestEnv(t)
	caseID := env.approveMeyer(t)

	require.Contains(t, env.store.Cases, caseID)
	assert.Len(t, env.store.Cases[caseID].Persons, 7)
}

func TestApprove_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		body     any
		wantCode int
		wantErr  string
	}{
		{
			name:     "missing packet id",
			body:     map[string]any{"extractedData": mocks.MeyerExtraction()},
			wantCode: http.StatusBadRequest,
			wantErr:  "bad_request",
		},
		{
			name: "unknown field",
			body: map[string]any{
				"packetId":      mocks.MeyerPacketID,
				"extractedData": map[string]any{"formType": "J294", "age": 3},
			},
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "invalid_input",
		},
		{
			name: "missing death date",
			body: func() any {
				x := mocks.MeyerExtraction()
				x.Deceased.DeathDate = ""
				return map[string]any{"packetId": mocks.MeyerPacketID, "extractedData": x}
			}(),
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "missing_field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(t, http.MethodPost, "/api/review/approve", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantErr, decodeError(t, rec).Code)
			assert.Empty(t, env.store.Cases)
		})
	}
}

func TestApprove_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.store.CreateErr = errors.New("disk full")

	rec := env.do(t, http.MethodPost, "/api/review/approve", map[string]any{
		"packetId":      mocks.MeyerPacketID,
		"extractedData": mocks.MeyerExtraction(),
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "persistence_failure", decodeError(t, rec).Code)
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)
	caseID := env.approveMeyer(t)

	rec := env.do(t, http.MethodPost, "/api/export", map[string]any{"caseId": caseID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="provpack_fs_tab_1960_mhg_2322_60.zip"`, rec.Header().Get("Content-Disposition"))

	m, err := provpack.Verify(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, caseID, m.CaseID)
}

func TestExport_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/export", map[string]any{"caseId": "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "case_not_found", decodeError(t, rec).Code)

	rec = env.do(t, http.MethodPost, "/api/export", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCases(t *testing.T) {
	env := newTestEnv(t)
	caseID := env.approveMeyer(t)

	rec := env.do(t, http.MethodGet, "/api/cases?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Cases []entities.CaseSummary `json:"cases"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Cases, 1)
	assert.Equal(t, caseID, list.Cases[0].CaseID)

	rec = env.do(t, http.MethodGet, "/api/cases?limit=ten", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/cases/"+caseID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail caseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, caseID, detail.Case.CaseID)
	require.Len(t, detail.Audit, 1)
	assert.Equal(t, entities.ActionCaseApproved, detail.Audit[0].Action)

	rec = env.do(t, http.MethodGet, "/api/cases/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAudit(t *testing.T) {
	env := newTestEnv(t)
	caseID := env.approveMeyer(t)

	rec := env.do(t, http.MethodGet, "/api/audit?action="+entities.ActionCaseApproved, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Entries []entities.AuditEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Entries, 1)
	assert.Equal(t, caseID, list.Entries[0].CaseID)

	rec = env.do(t, http.MethodGet, "/api/audit?action="+entities.ActionCaseExported, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"entries":[]}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/audit?action=case.deleted", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/audit?action="+entities.ActionCaseApproved+"&limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/export", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
