package handlers

import (
	"bytes"
	"c3-policy-manager/internal/bucket"
	"c3-policy-manager/internal/bundle"
	"c3-policy-manager/internal/policy"
	"c3-policy-manager/internal/usecases"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
)

const globalTestdataDir = "../../../testdata"

type mockBundleRepository struct {
	bundles map[string]*bundle.Bundle
}

func (m *mockBundleRepository) Get(_ context.Context, name string) (*bundle.Bundle, error) {
	b, ok := m.bundles[name]
	if !ok {
		return nil, bundle.ErrBundleNotFound
	}
	return b, nil
}

func (m *mockBundleRepository) Save(_ context.Context, name string, b *bundle.Bundle) error {
	m.bundles[name] = b
	return nil
}

func (m *mockBundleRepository) Exists(_ context.Context, name string) (bool, error) {
	_, ok := m.bundles[name]
	return ok, nil
}

type mockConnection struct {
	buckets  map[string]*bucket.Info
	policies map[string]string
	tags     map[string]map[string]string
	err      error
}

func newMockConnection() *mockConnection {
	return &mockConnection{
		buckets:  map[string]*bucket.Info{},
		policies: map[string]string{},
		tags:     map[string]map[string]string{},
	}
}

func (m *mockConnection) Lookup(_ context.Context, name string) (bool, error) {
	_, ok := m.buckets[name]
	return ok, m.err
}

func (m *mockConnection) CreateBucket(_ context.Context, name, location string) error {
	m.buckets[name] = &bucket.Info{Name: name, Location: location}
	return m.err
}

func (m *mockConnection) DeleteBucket(_ context.Context, name string) error {
	delete(m.buckets, name)
	return m.err
}

func (m *mockConnection) GetBucket(_ context.Context, name string) (*bucket.Info, error) {
	return m.buckets[name], m.err
}

func (m *mockConnection) SetBucketPolicy(_ context.Context, name, policy string) error {
	m.policies[name] = policy
	return m.err
}

func (m *mockConnection) SetBucketTags(_ context.Context, name string, tags map[string]string) error {
	m.tags[name] = tags
	return m.err
}

func newTestRouter(t *testing.T) (*gin.Engine, *mockBundleRepository, *mockConnection) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := &mockBundleRepository{bundles: map[string]*bundle.Bundle{}}
	conn := newMockConnection()
	router := gin.New()
	NewService(repo, conn).Register(router)
	return router, repo, conn
}

func rulesBody(t *testing.T, file string, extra map[string]any) *bytes.Buffer {
	t.Helper()
	rules, err := os.ReadFile(globalTestdataDir + "/" + file)
	if err != nil {
		t.Fatalf("failed to read rule file: %v", err)
	}
	body := map[string]any{
		"rules":   string(rules),
		"cluster": "devzzz",
		"account": "opsqa",
	}
	for key, value := range extra {
		body[key] = value
	}
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to encode body: %v", err)
	}
	return bytes.NewBuffer(data)
}

func serve(router *gin.Engine, method, target string, body *bytes.Buffer) *httptest.ResponseRecorder {
	var r *http.Request
	if body == nil {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, body)
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func TestPostEntries(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := serve(router, http.MethodPost, "/api/entries", rulesBody(t, "opsqa-devzzz.ini", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status OK, got %d: %s", w.Code, w.Body)
	}
	var response struct {
		Entries []string `json:"entries"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Entries) != 3 || response.Entries[1] != "Deny|s3:*|devzzz|opsqa|mybucket/foobar/barbaz|empty" {
		t.Errorf("unexpected entries %q", response.Entries)
	}

	tests := []struct {
		name   string
		body   *bytes.Buffer
		status int
	}{
		{"Malformed section", rulesBody(t, "malformed-section.ini", nil), http.StatusUnprocessableEntity},
		{"Invalid condition", rulesBody(t, "invalid-condition.ini", nil), http.StatusUnprocessableEntity},
		{"Missing cluster", rulesBody(t, "opsqa-devzzz.ini", map[string]any{"cluster": ""}), http.StatusBadRequest},
		{"Not JSON", bytes.NewBufferString("[s3:get*]"), http.StatusBadRequest},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			w := serve(router, http.MethodPost, "/api/entries", test.body)
			if w.Code != test.status {
				t.Errorf("expected status %d, got %d: %s", test.status, w.Code, w.Body)
			}
		})
	}
}

func TestPostStatements(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := serve(router, http.MethodPost, "/api/statements", rulesBody(t, "opsqa-devzzz.ini", map[string]any{"cluster": "devqqq"}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status OK, got %d: %s", w.Code, w.Body)
	}
	document, err := policy.ParseDocument(w.Body.Bytes())
	if err != nil {
		t.Fatalf("invalid document: %v", err)
	}
	if len(document.Statement) != 4 {
		t.Errorf("expected 4 statements, got %d", len(document.Statement))
	}
}

func TestGetBucket(t *testing.T) {
	router, _, conn := newTestRouter(t)
	conn.buckets["mybucket"] = &bucket.Info{Name: "mybucket", Location: "EU"}

	w := serve(router, http.MethodGet, "/api/buckets/mybucket", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status OK, got %d: %s", w.Code, w.Body)
	}
	var info bucket.Info
	if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if info.Name != "mybucket" || info.Location != "EU" {
		t.Errorf("unexpected bucket %+v", info)
	}

	if w := serve(router, http.MethodGet, "/api/buckets/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected status NotFound, got %d", w.Code)
	}

	conn.err = errors.New("connection refused")
	if w := serve(router, http.MethodGet, "/api/buckets/mybucket", nil); w.Code != http.StatusBadGateway {
		t.Errorf("expected status BadGateway, got %d", w.Code)
	}
}

func TestPutBucketPolicy(t *testing.T) {
	router, repo, conn := newTestRouter(t)

	body := rulesBody(t, "opsqa-devzzz.ini", map[string]any{
		"region": "EU",
		"tags":   map[string]string{"Team": "Operations"},
	})
	w := serve(router, http.MethodPut, "/api/buckets/mybucket/policy", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status OK, got %d: %s", w.Code, w.Body)
	}
	if info, ok := conn.buckets["mybucket"]; !ok || info.Location != "EU" {
		t.Errorf("bucket not created in EU: %+v", info)
	}
	uploaded, err := policy.ParseDocument([]byte(conn.policies["mybucket"]))
	if err != nil || len(uploaded.Statement) != 3 {
		t.Errorf("unexpected uploaded policy %q: %v", conn.policies["mybucket"], err)
	}
	if conn.tags["mybucket"]["Team"] != "Operations" {
		t.Errorf("unexpected tags %v", conn.tags["mybucket"])
	}

	description, err := usecases.DescribeBundle(context.Background(), repo)
	if err != nil {
		t.Fatalf("bundle not saved: %v", err)
	}
	if len(description.Buckets) != 1 || description.Buckets[0] != "mybucket" {
		t.Errorf("unexpected bundle buckets %v", description.Buckets)
	}

	w = serve(router, http.MethodPut, "/api/buckets/other/policy", rulesBody(t, "opsqa-devzzz.ini", map[string]any{"region": "moon-1"}))
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status UnprocessableEntity, got %d: %s", w.Code, w.Body)
	}
	if _, ok := conn.buckets["other"]; ok {
		t.Errorf("bucket created in an unknown region")
	}
	conn.err = errors.New("connection refused")
	w = serve(router, http.MethodPut, "/api/buckets/other/policy", rulesBody(t, "opsqa-devzzz.ini", map[string]any{"region": "EU"}))
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected status BadGateway, got %d: %s", w.Code, w.Body)
	}
	if _, ok := conn.policies["other"]; ok {
		t.Errorf("policy uploaded after a failed lookup")
	}
}

func TestBundleHandlers(t *testing.T) {
	router, repo, _ := newTestRouter(t)

	if w := serve(router, http.MethodGet, "/api/bundle", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected status NotFound, got %d", w.Code)
	}

	statement, err := policy.MakeStatement("opsqa", "root", "mybucket/*", "s3:GetObject", "Allow", "empty")
	if err != nil {
		t.Fatalf("MakeStatement() error = %v", err)
	}
	if err := usecases.AddBucketToBundle(context.Background(), repo, "mybucket", policy.NewDocument(statement)); err != nil {
		t.Fatalf("AddBucketToBundle() error = %v", err)
	}

	w := serve(router, http.MethodGet, "/api/bundle", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status OK, got %d: %s", w.Code, w.Body)
	}
	var description usecases.BundleDescription
	if err := json.NewDecoder(w.Body).Decode(&description); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(description.Buckets) != 1 || description.Revision == "" {
		t.Errorf("unexpected description %+v", description)
	}

	if w := serve(router, http.MethodDelete, "/api/bundle/buckets/mybucket", nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected status NoContent, got %d: %s", w.Code, w.Body)
	}
	if w := serve(router, http.MethodDelete, "/api/bundle/buckets/mybucket", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected status NotFound, got %d", w.Code)
	}
}
