// Platewise | 2026
// handler_test.go

package member

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/platewise/backend/internal/middleware"
)

const (
	uuidManagerA  = "aaaaaaaa-0000-0000-0000-000000000001"
	uuidManagerB  = "aaaaaaaa-0000-0000-0000-000000000002"
	uuidEmployeeC = "aaaaaaaa-0000-0000-0000-000000000003"
)

func seededRepo() *fakeRepo {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	return newFakeRepo(
		testMember(uuidManagerA, RoleManager, base),
		testMember(uuidManagerB, RoleManager, base.Add(time.Minute)),
		testMember(uuidEmployeeC, RoleEmployee, base.Add(2*time.Minute)),
	)
}

// identity stands in for the auth middleware, stamping the request
// context the same way verified token claims would.
func identity(memberID, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = context.WithValue(ctx, middleware.MemberIDKey, memberID)
			ctx = context.WithValue(ctx, middleware.MemberRoleKey, role)
			ctx = context.WithValue(
				ctx, middleware.EstablishmentIDKey, testEstablishment)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newTestRouter(repo Repository, memberID, role string) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(nil, repo, logger)
	handler := NewHandler(
		svc,
		validator.New(validator.WithRequiredStructEnabled()),
		logger,
	)

	router := chi.NewRouter()
	router.Use(identity(memberID, role))
	router.Route("/team", handler.RegisterTeamRoutes)
	router.Route("/presence", handler.RegisterPresenceRoutes)
	return router
}

func doJSON(
	t *testing.T,
	router http.Handler,
	method, path, body string,
) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestChangeRoleEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(seededRepo(), uuidManagerA, RoleManager)

	rec := doJSON(t, router, http.MethodPost, "/team/change-role",
		`{"memberId":"`+uuidManagerB+`","newRole":"employee"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var resp RosterActionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Errorf("success = false, want true")
	}
	if resp.Message != "role updated" {
		t.Errorf("message = %q", resp.Message)
	}
	if resp.Member.Role != RoleEmployee {
		t.Errorf("member role = %q, want %q", resp.Member.Role, RoleEmployee)
	}
	if resp.Member.ID != uuidManagerB {
		t.Errorf("member id = %q, want %q", resp.Member.ID, uuidManagerB)
	}
}

func TestChangeRoleEndpointLastManager(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	repo := newFakeRepo(
		testMember(uuidManagerA, RoleManager, base),
		testMember(uuidEmployeeC, RoleEmployee, base.Add(time.Minute)),
	)
	admin := testMember("aaaaaaaa-0000-0000-0000-00000000000a", RoleAdmin, base)
	if err := repo.Create(context.Background(), admin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	router := newTestRouter(repo, admin.ID, RoleAdmin)

	rec := doJSON(t, router, http.MethodPost, "/team/change-role",
		`{"memberId":"`+uuidManagerA+`","newRole":"employee"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Code != "LAST_MANAGER" {
		t.Errorf("code = %q, want LAST_MANAGER", body.Code)
	}
	if body.Error == "" {
		t.Errorf("error message is empty")
	}
}

func TestChangeRoleEndpointRequiresManagerRole(t *testing.T) {
	t.Parallel()

	router := newTestRouter(seededRepo(), uuidEmployeeC, RoleEmployee)

	rec := doJSON(t, router, http.MethodPost, "/team/change-role",
		`{"memberId":"`+uuidManagerB+`","newRole":"employee"}`)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestChangeRoleEndpointValidation(t *testing.T) {
	t.Parallel()

	router := newTestRouter(seededRepo(), uuidManagerA, RoleManager)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"memberId":`},
		{"missing member id", `{"newRole":"manager"}`},
		{"non-uuid member id", `{"memberId":"nope","newRole":"manager"}`},
		{"admin role", `{"memberId":"` + uuidEmployeeC + `","newRole":"admin"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := doJSON(t, router, http.MethodPost, "/team/change-role", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body %s",
					rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRemoveEndpoint(t *testing.T) {
	t.Parallel()

	repo := seededRepo()
	router := newTestRouter(repo, uuidManagerA, RoleManager)

	rec := doJSON(t, router, http.MethodPost, "/team/remove",
		`{"memberId":"`+uuidEmployeeC+`"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var resp RosterActionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message != "member removed" {
		t.Errorf("message = %q", resp.Message)
	}

	removed, _ := repo.GetByID(context.Background(), uuidEmployeeC)
	if removed.IsActive || removed.EstablishmentID != nil {
		t.Errorf("member not soft-disabled after remove")
	}
}

func TestHeartbeatEndpoint(t *testing.T) {
	t.Parallel()

	repo := seededRepo()
	router := newTestRouter(repo, uuidEmployeeC, RoleEmployee)

	rec := doJSON(t, router, http.MethodPost, "/presence/heartbeat", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var resp HeartbeatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Errorf("success = false, want true")
	}

	m, _ := repo.GetByID(context.Background(), uuidEmployeeC)
	if m.LastActivityAt == nil {
		t.Errorf("heartbeat did not record activity")
	}
}

func TestListEndpointShape(t *testing.T) {
	t.Parallel()

	repo := seededRepo()
	now := time.Now().UTC()
	if err := repo.Touch(
		context.Background(), uuidEmployeeC, now.Add(-30*time.Second),
	); err != nil {
		t.Fatalf("seed activity: %v", err)
	}

	router := newTestRouter(repo, uuidManagerA, RoleManager)

	rec := doJSON(t, router, http.MethodGet, "/team/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Members []map[string]any `json:"members"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Members) != 3 {
		t.Fatalf("got %d members, want 3", len(resp.Members))
	}

	// Sorted newest first, so the employee with the fresh heartbeat leads.
	first := resp.Members[0]
	if first["id"] != uuidEmployeeC {
		t.Errorf("first member = %v, want %s", first["id"], uuidEmployeeC)
	}
	if first["isOnline"] != true {
		t.Errorf("fresh heartbeat should report online")
	}
	if first["lastSeen"] == nil {
		t.Errorf("lastSeen missing for active member")
	}

	last := resp.Members[2]
	if last["isOnline"] != false {
		t.Errorf("silent member should report offline")
	}

	for _, key := range []string{"id", "firstName", "lastName", "role",
		"isActive", "isOnline", "createdAt"} {
		if _, ok := first[key]; !ok {
			t.Errorf("response missing field %q", key)
		}
	}
}
