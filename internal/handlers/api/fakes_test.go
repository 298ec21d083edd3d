package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"sellerdesk/internal/db"
	"sellerdesk/internal/keywords"
	"sellerdesk/internal/listing"
	"sellerdesk/internal/llm"
	"sellerdesk/internal/models"
)

type fakeKeywordService struct {
	res  keywords.Result
	err  error
	last keywords.Request
}

func (f *fakeKeywordService) GenerateKeywords(_ context.Context, req keywords.Request) (keywords.Result, error) {
	f.last = req
	return f.res, f.err
}

type fakeStore struct {
	mu        sync.Mutex
	searches  []models.KeywordSearch
	drafts    map[uuid.UUID]*models.ListingDraft
	templates []listing.Template
	failSave  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{drafts: map[uuid.UUID]*models.ListingDraft{}}
}

func (s *fakeStore) CreateKeywordSearch(_ context.Context, k *models.KeywordSearch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return io.ErrUnexpectedEOF
	}
	k.ID = uuid.New()
	k.CreatedAt = time.Now()
	s.searches = append(s.searches, *k)
	return nil
}

func (s *fakeStore) ListKeywordSearches(_ context.Context, owner string, _ int) ([]models.KeywordSearch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.KeywordSearch{}
	for _, k := range s.searches {
		if k.Owner == owner {
			k.Result = nil
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateDraft(_ context.Context, d *models.ListingDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = uuid.New()
	d.Status = models.DraftStatusDraft
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	cp := *d
	s.drafts[d.ID] = &cp
	return nil
}

func (s *fakeStore) GetDraft(_ context.Context, owner string, id uuid.UUID) (*models.ListingDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok || d.Owner != owner {
		return nil, db.ErrDraftNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *fakeStore) ListDrafts(_ context.Context, owner, status string, _ int) ([]models.ListingDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.ListingDraft{}
	for _, d := range s.drafts {
		if d.Owner == owner && (status == "" || d.Status == status) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateDraft(_ context.Context, d *models.ListingDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.drafts[d.ID]
	if !ok || existing.Owner != d.Owner {
		return db.ErrDraftNotFound
	}
	if existing.IsFinal() {
		return db.ErrDraftFinalized
	}
	cp := *d
	s.drafts[d.ID] = &cp
	return nil
}

func (s *fakeStore) FinalizeDraft(_ context.Context, d *models.ListingDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.drafts[d.ID]
	if !ok || existing.Owner != d.Owner {
		return db.ErrDraftNotFound
	}
	if existing.IsFinal() {
		return db.ErrDraftFinalized
	}
	now := time.Now()
	d.Status = models.DraftStatusFinal
	d.FinalizedAt = &now
	cp := *d
	s.drafts[d.ID] = &cp
	return nil
}

func (s *fakeStore) CreateTemplate(_ context.Context, t listing.Template, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.templates {
		if existing.ID == t.ID {
			return db.ErrDuplicateTemplate
		}
	}
	s.templates = append(s.templates, t)
	return nil
}

// memStore is an in-memory cache.Store.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memStore) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = val
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memStore) InvalidatePattern(_ context.Context, pattern string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func (m *memStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

type fakeCompleter struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (f *fakeCompleter) Complete(_ context.Context, _ llm.ChatRequest) (llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Text: f.text}, nil
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, target, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("invalid JSON response %q: %v", raw, err)
		}
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("failed to decode %s: %v", raw, err)
	}
	return v
}
