package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/classroomhq/auth-service/internal/config"
	"github.com/classroomhq/auth-service/internal/token"
	"github.com/classroomhq/auth-service/internal/user"
)

func newTestService(t *testing.T) (AuthService, *user.MemoryStore, token.Service) {
	t.Helper()
	cfg := &config.JWTConfig{
		Secret:      "test-secret",
		AccessTTL:   time.Minute,
		RefreshTTL:  time.Hour,
		JWTIssuer:   "auth-service",
		JWTAudience: "classroom",
	}
	store := user.NewMemoryStore()
	tokens := token.NewService(cfg)
	return NewAuthenticationService(store, tokens, zap.NewNop()), store, tokens
}

func seedUser(t *testing.T, store *user.MemoryStore, email, password string, role user.Role) *user.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	u, err := store.Create(context.Background(), user.CreateUserInput{
		Email:        email,
		FullName:     "Test User",
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		t.Fatalf("seed error: %v", err)
	}
	return u
}

func TestLoginIssuesVerifiableTokenPair(t *testing.T) {
	svc, store, tokens := newTestService(t)
	u := seedUser(t, store, "a@x.com", "password1", user.RoleStudent)

	pair, err := svc.Login(context.Background(), "a@x.com", "password1")
	if err != nil {
		t.Fatalf("login error: %v", err)
	}

	claims, err := tokens.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("access token failed verification: %v", err)
	}
	if claims.Sub != u.PublicID || claims.Role != user.RoleStudent {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	stored, err := store.FindByID(context.Background(), u.PublicID)
	if err != nil {
		t.Fatalf("find error: %v", err)
	}
	if stored.RefreshToken == nil || *stored.RefreshToken != pair.RefreshToken {
		t.Fatalf("refresh token was not persisted")
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	svc, store, _ := newTestService(t)
	u := seedUser(t, store, "a@x.com", "password1", user.RoleStudent)

	if _, err := svc.Login(context.Background(), "a@x.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	stored, _ := store.FindByID(context.Background(), u.PublicID)
	if stored.RefreshToken != nil {
		t.Fatalf("failed login must not touch the stored refresh token")
	}
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.Login(context.Background(), "nobody@x.com", "password1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSecondLoginSupersedesFirstRefreshToken(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedUser(t, store, "a@x.com", "password1", user.RoleStudent)

	first, err := svc.Login(context.Background(), "a@x.com", "password1")
	if err != nil {
		t.Fatalf("first login error: %v", err)
	}
	if _, err := svc.Login(context.Background(), "a@x.com", "password1"); err != nil {
		t.Fatalf("second login error: %v", err)
	}

	if _, err := svc.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("superseded token should be rejected, got %v", err)
	}
}

func TestRefreshRotates(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedUser(t, store, "a@x.com", "password1", user.RoleStudent)

	pair, err := svc.Login(context.Background(), "a@x.com", "password1")
	if err != nil {
		t.Fatalf("login error: %v", err)
	}

	next, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh error: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatalf("rotation must issue a different refresh token")
	}

	// The presented token is spent.
	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("rotated-out token should be rejected, got %v", err)
	}
}

func TestStaleTokenPresentationLocksOutSession(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedUser(t, store, "a@x.com", "password1", user.RoleStudent)

	pair, err := svc.Login(context.Background(), "a@x.com", "password1")
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	current, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh error: %v", err)
	}

	// Replaying the old token clears the stored one entirely...
	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	// ...so even the current token is now dead.
	if _, err := svc.Refresh(context.Background(), current.RefreshToken); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("lockout must invalidate the current token, got %v", err)
	}
}

func TestRefreshRejectsMissingAndGarbageTokens(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.Refresh(context.Background(), ""); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for empty token, got %v", err)
	}
	if _, err := svc.Refresh(context.Background(), "garbage"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for garbage token, got %v", err)
	}
}

func TestRefreshRejectsUnknownSubject(t *testing.T) {
	svc, _, tokens := newTestService(t)

	// Signed and well-formed, but no such user.
	orphan, err := tokens.IssueRefresh("3d1fbe3d-9f3c-4a2a-8f3e-0a4f5b6c7d8e")
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), orphan); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestConcurrentRefreshHasExactlyOneWinner(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedUser(t, store, "a@x.com", "password1", user.RoleStudent)

	pair, err := svc.Login(context.Background(), "a@x.com", "password1")
	if err != nil {
		t.Fatalf("login error: %v", err)
	}

	const attempts = 8
	var wg sync.WaitGroup
	results := make([]error, attempts)
	start := make(chan struct{})

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, results[i] = svc.Refresh(context.Background(), pair.RefreshToken)
		}(i)
	}
	close(start)
	wg.Wait()

	wins := 0
	for i, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrUnauthenticated):
		default:
			t.Fatalf("attempt %d: unexpected error %v", i, err)
		}
	}
	if wins != 1 {
		t.Fatalf("got %d winners, want exactly 1", wins)
	}
}

func TestLogoutClearsStoredToken(t *testing.T) {
	svc, store, _ := newTestService(t)
	u := seedUser(t, store, "a@x.com", "password1", user.RoleStudent)

	pair, err := svc.Login(context.Background(), "a@x.com", "password1")
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	if err := svc.Logout(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("logout error: %v", err)
	}

	stored, _ := store.FindByID(context.Background(), u.PublicID)
	if stored.RefreshToken != nil {
		t.Fatalf("logout must clear the stored refresh token")
	}
	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("refresh after logout should fail, got %v", err)
	}
}

func TestRegisterHashesPassword(t *testing.T) {
	svc, store, _ := newTestService(t)

	u, err := svc.Register(context.Background(), "b@x.com", "New User", "password1", user.RoleTeacher)
	if err != nil {
		t.Fatalf("register error: %v", err)
	}
	if u.PasswordHash == "password1" || u.PasswordHash == "" {
		t.Fatalf("password stored in the clear")
	}

	stored, err := store.FindByEmail(context.Background(), "b@x.com")
	if err != nil {
		t.Fatalf("find error: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password1")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if stored.Role != user.RoleTeacher {
		t.Fatalf("role = %v, want teacher", stored.Role)
	}
}
