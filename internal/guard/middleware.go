package guard

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/classroomhq/auth-service/internal/token"
)

// Middleware resolves a bearer access token into a Viewer on the request
// context. Requests without a usable token proceed with the zero Viewer;
// whether that matters is the guard's decision at each field, not the
// transport's.
func Middleware(tokens token.Service, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.VerifyAccess(raw)
			if err != nil {
				logger.Debug("access token rejected", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithViewer(r.Context(), Viewer{
				ID:   claims.Sub,
				Role: claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
