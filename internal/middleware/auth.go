// Package middleware содержит HTTP middleware сервиса маркетплейса.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type contextKey string

const principalKey contextKey = "principal"

const (
	authCookieName = "auth_token"
	authCookieTTL  = 90 * 24 * time.Hour
)

// Виды аутентифицированных субъектов.
const (
	KindUser   = "user"
	KindSeller = "seller"
)

// Principal описывает аутентифицированного субъекта запроса:
// покупателя, продавца или администратора.
type Principal struct {
	ID   int64
	Kind string
	Role string
}

// IsAdmin сообщает, что субъект — администратор платформы.
func (p Principal) IsAdmin() bool {
	return p.Kind == KindUser && p.Role == "admin"
}

// AuthMiddleware выполняет проверку аутентификации по подписанному cookie
// или заголовку Authorization с тем же подписанным значением.
type AuthMiddleware struct {
	secretKey []byte
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware с указанным секретным ключом.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &AuthMiddleware{
		secretKey: key,
	}
}

func (a *AuthMiddleware) tokenFromRequest(r *http.Request) (string, bool) {
	if cookie, err := r.Cookie(authCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}

	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer "), true
	}

	return "", false
}

// Middleware проверяет аутентификацию и добавляет субъекта в контекст запроса.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := a.tokenFromRequest(r)
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "please login to continue")
			return
		}

		p, ok := a.parseToken(token)
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "please login to continue")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireKind пропускает только субъектов указанного вида.
func (a *AuthMiddleware) RequireKind(kind string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := GetPrincipalFromContext(r.Context())
			if !ok || p.Kind != kind {
				writeAuthError(w, http.StatusForbidden, "access denied")
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// RequireAdmin пропускает только администраторов.
func (a *AuthMiddleware) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := GetPrincipalFromContext(r.Context())
			if !ok || !p.IsAdmin() {
				writeAuthError(w, http.StatusForbidden, "admin access only")
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// SetAuthCookie устанавливает cookie авторизации для указанного субъекта.
func (a *AuthMiddleware) SetAuthCookie(w http.ResponseWriter, p Principal) {
	cookie := &http.Cookie{
		Name:     authCookieName,
		Value:    a.SignPrincipal(p),
		Path:     "/",
		Expires:  time.Now().Add(authCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	http.SetCookie(w, cookie)
}

// ClearAuthCookie сбрасывает cookie авторизации.
func (a *AuthMiddleware) ClearAuthCookie(w http.ResponseWriter) {
	cookie := &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	http.SetCookie(w, cookie)
}

// SignPrincipal возвращает подписанное строковое представление субъекта.
// Это же значение принимается в заголовке Authorization.
func (a *AuthMiddleware) SignPrincipal(p Principal) string {
	payload := p.Kind + ":" + p.Role + ":" + strconv.FormatInt(p.ID, 10)
	mac := hmac.New(sha256.New, a.secretKey)
	mac.Write([]byte(payload))
	signature := mac.Sum(nil)
	return payload + "." + hex.EncodeToString(signature)
}

func (a *AuthMiddleware) parseToken(token string) (Principal, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return Principal{}, false
	}

	payload := parts[0]
	signature := parts[1]

	mac := hmac.New(sha256.New, a.secretKey)
	mac.Write([]byte(payload))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return Principal{}, false
	}

	fields := strings.Split(payload, ":")
	if len(fields) != 3 {
		return Principal{}, false
	}

	id, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return Principal{}, false
	}

	return Principal{ID: id, Kind: fields[0], Role: fields[1]}, true
}

// GetPrincipalFromContext извлекает субъекта из контекста запроса.
func GetPrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"success":false,"message":"` + message + `"}`))
}
