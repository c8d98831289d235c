package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthMiddleware_WithValidCookie(t *testing.T) {
	m := NewAuthMiddleware("test-secret")

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		p, ok := GetPrincipalFromContext(r.Context())
		if !ok {
			t.Fatalf("principal not in context")
		}
		if p.ID != 42 {
			t.Fatalf("principal id from context = %d, want 42", p.ID)
		}
		if p.Kind != KindUser {
			t.Fatalf("principal kind from context = %q, want %q", p.Kind, KindUser)
		}
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)

	m.SetAuthCookie(w, Principal{ID: 42, Kind: KindUser, Role: "user"})
	res := w.Result()
	resCookies := res.Cookies()
	if len(resCookies) == 0 {
		t.Fatalf("no cookies set by SetAuthCookie")
	}

	r.AddCookie(resCookies[0])

	handler := m.Middleware(next)
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}

func TestAuthMiddleware_WithBearerToken(t *testing.T) {
	m := NewAuthMiddleware("test-secret")

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		p, ok := GetPrincipalFromContext(r.Context())
		if !ok {
			t.Fatalf("principal not in context")
		}
		if p.Kind != KindSeller {
			t.Fatalf("principal kind from context = %q, want %q", p.Kind, KindSeller)
		}
	})

	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	token := m.SignPrincipal(Principal{ID: 7, Kind: KindSeller, Role: "seller"})
	r.Header.Set("Authorization", "Bearer "+token)

	handler := m.Middleware(next)
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}

func TestAuthMiddleware_WithoutCookie(t *testing.T) {
	m := NewAuthMiddleware("test-secret")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)

	handler := m.Middleware(next)
	handler.ServeHTTP(w, r)

	res := w.Result()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_TamperedToken(t *testing.T) {
	m := NewAuthMiddleware("test-secret")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	token := m.SignPrincipal(Principal{ID: 42, Kind: KindUser, Role: "user"})
	forged := "user:admin:42." + token[len(token)-64:]

	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.Header.Set("Authorization", "Bearer "+forged)

	w := httptest.NewRecorder()
	handler := m.Middleware(next)
	handler.ServeHTTP(w, r)

	res := w.Result()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_RequireKind(t *testing.T) {
	m := NewAuthMiddleware("test-secret")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	r := httptest.NewRequest(http.MethodGet, "/seller-only", nil)
	token := m.SignPrincipal(Principal{ID: 42, Kind: KindUser, Role: "user"})
	r.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	handler := m.RequireKind(KindSeller)(next)
	handler.ServeHTTP(w, r)

	res := w.Result()
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusForbidden)
	}
}

func TestAuthMiddleware_RequireAdmin(t *testing.T) {
	m := NewAuthMiddleware("test-secret")

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	})

	r := httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	token := m.SignPrincipal(Principal{ID: 1, Kind: KindUser, Role: "admin"})
	r.Header.Set("Authorization", "Bearer "+token)

	handler := m.RequireAdmin()(next)
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called for admin")
	}
}
