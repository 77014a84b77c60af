package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/classroomhq/auth-service/internal/config"
	"github.com/classroomhq/auth-service/internal/token"
	"github.com/classroomhq/auth-service/internal/user"
	"github.com/classroomhq/auth-service/pkg/id"
)

func testTokens() token.Service {
	return token.NewService(&config.JWTConfig{
		Secret:      "test-secret",
		AccessTTL:   time.Minute,
		RefreshTTL:  time.Hour,
		JWTIssuer:   "auth-service",
		JWTAudience: "classroom",
	})
}

func viewerCapture(out *Viewer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*out = ViewerFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewareResolvesBearerToken(t *testing.T) {
	tokens := testTokens()
	u := &user.User{PublicID: id.New(), Email: "a@x.com", Role: user.RoleTeacher}
	access, err := tokens.IssueAccess(u)
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}

	var got Viewer
	h := Middleware(tokens, zap.NewNop())(viewerCapture(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got.ID != u.PublicID || got.Role != user.RoleTeacher {
		t.Fatalf("unexpected viewer: %+v", got)
	}
}

func TestMiddlewarePassesThroughWithoutToken(t *testing.T) {
	var got Viewer
	h := Middleware(testTokens(), zap.NewNop())(viewerCapture(&got))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got.Authenticated() {
		t.Fatalf("missing token should yield an unauthenticated viewer")
	}
}

func TestMiddlewareIgnoresInvalidToken(t *testing.T) {
	var got Viewer
	h := Middleware(testTokens(), zap.NewNop())(viewerCapture(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got.Authenticated() {
		t.Fatalf("invalid token should yield an unauthenticated viewer")
	}
}
