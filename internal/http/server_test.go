package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"financy/internal/cache"
	"financy/internal/core"
	"financy/internal/services"
	"financy/internal/storage/memory"
)

const testUser = "1"

var testNow = time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	srv   *Server
	store *memory.Store
	cache *cache.LRUCache[[]core.Transaction]
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	store := memory.New().WithClock(func() time.Time { return testNow })
	lru := cache.NewLRUCache[[]core.Transaction](4, time.Minute)
	srv, err := NewServer(":0", Deps{
		Transactions: services.NewTransactionService(store,
			services.WithTransactionCache(lru),
			services.WithClock(func() time.Time { return testNow }, time.UTC)),
		Goals:              services.NewGoalService(store),
		Notifications:      services.NewNotificationService(store),
		Store:              store,
		UserID:             testUser,
		RateLimitPerMinute: 1000,
		CacheStats:         lru.Stats,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { srv.stopBackground() })
	return testEnv{srv: srv, store: store, cache: lru}
}

func (e testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestNewServerRequiresServices(t *testing.T) {
	if _, err := NewServer(":0", Deps{UserID: "1"}); err == nil {
		t.Fatal("expected error without services")
	}
}

func TestHealthReadyMetrics(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := env.do(t, http.MethodGet, path, ""); rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rr.Code, rr.Body)
		}
	}
	rr := env.do(t, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "http_requests_total") {
		t.Fatalf("metrics status=%d body=%s", rr.Code, rr.Body)
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("security headers missing")
	}
}

func TestCreateTransaction(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantFields []string
		check      func(t *testing.T, tx core.Transaction)
	}{
		{
			name:       "display amount",
			body:       `{"description":"Salary","method":"Bank account","date":"2025-10-01","amount":"+$3,000.00","positive":true,"category":"Income"}`,
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, tx core.Transaction) {
				if tx.ID == 0 || tx.Amount != "+$3,000.00" || !tx.Positive || tx.Category != "Income" {
					t.Fatalf("unexpected tx %+v", tx)
				}
			},
		},
		{
			name:       "numeric value builds amount",
			body:       `{"description":"Coffee","method":"Cash","date":"2025-10-02T08:30:00Z","value":-4.5}`,
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, tx core.Transaction) {
				if tx.Amount != "-$4.50" || tx.Positive {
					t.Fatalf("amount=%q positive=%v", tx.Amount, tx.Positive)
				}
				if tx.Category != core.DefaultCategory {
					t.Fatalf("category=%q", tx.Category)
				}
				if tx.Date.String() != "2025-10-02" {
					t.Fatalf("date=%s", tx.Date)
				}
			},
		},
		{
			name:       "missing fields",
			body:       `{"amount":"abc"}`,
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"description", "method", "date", "amount"},
		},
		{
			name:       "sign mismatch",
			body:       `{"description":"Rent","method":"Bank account","date":"2025-10-01","amount":"-$1,200.00","positive":true}`,
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"positive"},
		},
		{
			name:       "bad value",
			body:       `{"description":"x","method":"Cash","date":"2025-10-01","value":"lots"}`,
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"value", "amount"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rr := env.do(t, http.MethodPost, "/api/transactions", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body)
			}
			if tt.check != nil {
				tt.check(t, decode[core.Transaction](t, rr))
			}
			if len(tt.wantFields) > 0 {
				body := decode[struct {
					Error struct {
						FieldErrors map[string][]string `json:"fieldErrors"`
					} `json:"error"`
				}](t, rr)
				for _, f := range tt.wantFields {
					if len(body.Error.FieldErrors[f]) == 0 {
						t.Errorf("missing field error %q in %v", f, body.Error.FieldErrors)
					}
				}
			}
		})
	}
}

func TestCreateTransactionRejectsMalformedBody(t *testing.T) {
	env := newTestEnv(t)
	if rr := env.do(t, http.MethodPost, "/api/transactions", `{"description":`); rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestTransactionsListAndCacheInvalidation(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/transactions", "")
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("empty list: status=%d body=%s", rr.Code, rr.Body)
	}

	env.do(t, http.MethodPost, "/api/transactions", `{"description":"A","method":"Cash","date":"2025-10-01","value":-10}`)
	env.do(t, http.MethodPost, "/api/transactions", `{"description":"B","method":"Cash","date":"2025-10-03","value":-20}`)

	txs := decode[[]core.Transaction](t, env.do(t, http.MethodGet, "/api/transactions", ""))
	if len(txs) != 2 || txs[0].Description != "B" {
		t.Fatalf("list = %+v", txs)
	}
	if env.cache.Stats().Misses < 2 {
		t.Fatalf("cache was not invalidated: %+v", env.cache.Stats())
	}
}

func TestDashboardJSONAndPage(t *testing.T) {
	env := newTestEnv(t)
	for _, body := range []string{
		`{"description":"Salary","method":"Bank account","date":"2025-10-01","value":3000,"category":"Income"}`,
		`{"description":"Rent","method":"Bank account","date":"2025-10-02","value":-1200,"category":"Housing"}`,
		`{"description":"Salary","method":"Bank account","date":"2025-09-01","value":2000,"category":"Income"}`,
	} {
		if rr := env.do(t, http.MethodPost, "/api/transactions", body); rr.Code != http.StatusCreated {
			t.Fatalf("seed status=%d body=%s", rr.Code, rr.Body)
		}
	}

	rr := env.do(t, http.MethodGet, "/api/dashboard", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	sum := decode[struct {
		MonthLabel string `json:"monthLabel"`
		Current    struct {
			Income   float64 `json:"income"`
			Expenses float64 `json:"expenses"`
		} `json:"current"`
		Slices []struct {
			Label string `json:"label"`
		} `json:"slices"`
	}](t, rr)
	if sum.MonthLabel != "October 2025" || sum.Current.Income != 3000 || sum.Current.Expenses != 1200 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(sum.Slices) != 1 || sum.Slices[0].Label != "Housing" {
		t.Fatalf("slices = %+v", sum.Slices)
	}

	page := env.do(t, http.MethodGet, "/", "")
	if page.Code != http.StatusOK {
		t.Fatalf("index status=%d", page.Code)
	}
	html := page.Body.String()
	for _, want := range []string{"October 2025", "$3,000.00", "Housing", "100.0%", "Rent"} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestDashboardPageEmptyStates(t *testing.T) {
	env := newTestEnv(t)
	html := env.do(t, http.MethodGet, "/", "").Body.String()
	for _, want := range []string{"No expense data yet.", "No transactions yet"} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestCategoriesAndMethods(t *testing.T) {
	env := newTestEnv(t)
	cats := decode[[]string](t, env.do(t, http.MethodGet, "/api/categories", ""))
	if len(cats) != len(core.Categories) {
		t.Fatalf("categories = %v", cats)
	}
	methods := decode[[]string](t, env.do(t, http.MethodGet, "/api/methods", ""))
	if len(methods) != 4 {
		t.Fatalf("methods = %v", methods)
	}
}

func TestGoalsLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/goals", `{"title":"Emergency fund","targetAmount":"5000","dueDate":"2026-01-31"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body)
	}
	g := decode[core.Goal](t, rr)
	if g.TargetAmount != 5000 || g.CurrentAmount != 0 || g.DueDate == nil {
		t.Fatalf("goal = %+v", g)
	}

	rr = env.do(t, http.MethodPatch, "/api/goals/"+itoa(g.ID), `{"currentAmount":1250,"dueDate":null}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("patch status=%d body=%s", rr.Code, rr.Body)
	}
	updated := decode[core.Goal](t, rr)
	if updated.CurrentAmount != 1250 || updated.DueDate != nil || updated.Title != "Emergency fund" {
		t.Fatalf("updated = %+v", updated)
	}

	goals := decode[[]core.Goal](t, env.do(t, http.MethodGet, "/api/goals", ""))
	if len(goals) != 1 {
		t.Fatalf("goals = %+v", goals)
	}

	rr = env.do(t, http.MethodDelete, "/api/goals/"+itoa(g.ID), "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"ok":true`) {
		t.Fatalf("complete status=%d body=%s", rr.Code, rr.Body)
	}
	if rr := env.do(t, http.MethodDelete, "/api/goals/"+itoa(g.ID), ""); rr.Code != http.StatusNotFound {
		t.Fatalf("second complete status=%d", rr.Code)
	}

	notes := decode[[]core.Notification](t, env.do(t, http.MethodGet, "/api/notifications", ""))
	if len(notes) != 1 || notes[0].Title != "Goal completed ✅" || notes[0].Body != `You completed your "Emergency fund" goal!` {
		t.Fatalf("notifications = %+v", notes)
	}
}

func TestGoalValidation(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		field  string
	}{
		{"missing title", http.MethodPost, "/api/goals", `{"targetAmount":10}`, http.StatusBadRequest, "title"},
		{"missing target", http.MethodPost, "/api/goals", `{"title":"x"}`, http.StatusBadRequest, "targetAmount"},
		{"negative target", http.MethodPost, "/api/goals", `{"title":"x","targetAmount":-1}`, http.StatusBadRequest, "targetAmount"},
		{"bad current", http.MethodPost, "/api/goals", `{"title":"x","targetAmount":1,"currentAmount":"abc"}`, http.StatusBadRequest, "currentAmount"},
		{"bad due date", http.MethodPost, "/api/goals", `{"title":"x","targetAmount":1,"dueDate":"soon"}`, http.StatusBadRequest, "dueDate"},
		{"patch missing goal", http.MethodPatch, "/api/goals/999", `{"title":"y"}`, http.StatusNotFound, ""},
		{"patch bad id", http.MethodPatch, "/api/goals/abc", `{"title":"y"}`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rr := env.do(t, tt.method, tt.path, tt.body)
			if rr.Code != tt.status {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body)
			}
			if tt.field != "" && !strings.Contains(rr.Body.String(), `"`+tt.field+`"`) {
				t.Fatalf("body %s missing field %q", rr.Body, tt.field)
			}
		})
	}
}

func TestRecordIDsAreStrings(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/transactions", `{"description":"A","method":"Cash","date":"2025-10-01","value":-10}`)
	env.do(t, http.MethodPost, "/api/goals", `{"title":"Trip","targetAmount":100}`)
	if _, err := env.store.CreateNotification(context.Background(), testUser, core.Notification{Title: "n"}); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{"/api/transactions", "/api/goals", "/api/notifications"} {
		t.Run(path, func(t *testing.T) {
			records := decode[[]map[string]any](t, env.do(t, http.MethodGet, path, ""))
			if len(records) != 1 {
				t.Fatalf("records = %v", records)
			}
			id, ok := records[0]["id"].(string)
			if !ok || id == "" {
				t.Fatalf("id = %#v, want a non-empty string", records[0]["id"])
			}
		})
	}
}

func TestNotifications(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := env.store.CreateNotification(ctx, testUser, core.Notification{Title: "n"}); err != nil {
			t.Fatal(err)
		}
	}
	other, _ := env.store.CreateNotification(ctx, "2", core.Notification{Title: "theirs"})

	count := decode[struct {
		Count int    `json:"count"`
		Badge string `json:"badge"`
	}](t, env.do(t, http.MethodGet, "/api/notifications/unread-count", ""))
	if count.Count != 3 || count.Badge != "3" {
		t.Fatalf("count = %+v", count)
	}

	notes := decode[[]core.Notification](t, env.do(t, http.MethodGet, "/api/notifications", ""))
	if rr := env.do(t, http.MethodPatch, "/api/notifications/"+itoa(notes[0].ID), "not json"); rr.Code != http.StatusOK {
		t.Fatalf("patch status=%d", rr.Code)
	}
	if rr := env.do(t, http.MethodPatch, "/api/notifications/"+itoa(other.ID), `{"read":true}`); rr.Code != http.StatusNotFound {
		t.Fatalf("patch other user status=%d", rr.Code)
	}
	if n, _ := env.store.CountUnread(ctx, testUser); n != 2 {
		t.Fatalf("unread after patch = %d", n)
	}

	if rr := env.do(t, http.MethodPatch, "/api/notifications/"+itoa(notes[0].ID), `{"read":false}`); rr.Code != http.StatusOK {
		t.Fatalf("unread patch status=%d", rr.Code)
	}
	if rr := env.do(t, http.MethodPost, "/api/notifications/mark-all-read", ""); rr.Code != http.StatusOK {
		t.Fatalf("mark all status=%d", rr.Code)
	}
	if n, _ := env.store.CountUnread(ctx, testUser); n != 0 {
		t.Fatalf("unread after mark all = %d", n)
	}
	if n, _ := env.store.CountUnread(ctx, "2"); n != 1 {
		t.Fatalf("other user unread = %d", n)
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	store := memory.New()
	srv, err := NewServer(":0", Deps{
		Transactions:       services.NewTransactionService(store),
		Goals:              services.NewGoalService(store),
		Notifications:      services.NewNotificationService(store),
		UserID:             testUser,
		RateLimitPerMinute: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer srv.stopBackground()

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/notifications/mark-all-read", nil))
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
