package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/UniversalTze/FormBase/pkg/postgrest"
)

const storeSecret = "store-secret"

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	return signedTokenWithKey(t, claims, storeSecret)
}

func signedTokenWithKey(t *testing.T, claims jwt.MapClaims, key string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func credentialsRouter(required bool, seen *postgrest.Credentials, found *bool) *gin.Engine {
	return credentialsRouterWithConfig(CredentialsConfig{Required: required}, seen, found)
}

func credentialsRouterWithConfig(cfg CredentialsConfig, seen *postgrest.Credentials, found *bool) *gin.Engine {
	router := gin.New()
	router.Use(Credentials(cfg))
	router.GET("/", func(c *gin.Context) {
		*seen, *found = postgrest.CredentialsFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestCredentialsForwardsBearerAndOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen postgrest.Credentials
	var found bool
	router := credentialsRouter(false, &seen, &found)
	token := signedToken(t, jwt.MapClaims{"username": "alice", "role": "authenticated"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if !found || seen.Token != token || seen.Username != "alice" {
		t.Fatalf("unexpected credentials: %+v (found=%v)", seen, found)
	}
}

func TestCredentialsFallsBackToSubject(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen postgrest.Credentials
	var found bool
	router := credentialsRouter(false, &seen, &found)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+signedToken(t, jwt.MapClaims{"sub": "s-123"}))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent || seen.Username != "s-123" {
		t.Fatalf("unexpected result: %d %+v", recorder.Code, seen)
	}
}

func TestCredentialsWithoutHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen postgrest.Credentials
	var found bool

	recorder := httptest.NewRecorder()
	credentialsRouter(false, &seen, &found).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	if recorder.Code != http.StatusNoContent || found {
		t.Fatalf("anonymous request should pass without credentials: %d found=%v", recorder.Code, found)
	}

	recorder = httptest.NewRecorder()
	credentialsRouter(true, &seen, &found).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 when a token is required, got %d", recorder.Code)
	}
}

func TestCredentialsRejectsMalformedTokens(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen postgrest.Credentials
	var found bool
	router := credentialsRouter(false, &seen, &found)

	for _, header := range []string{"Basic abc", "Bearer ", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("%q: expected 401, got %d", header, recorder.Code)
		}
	}
}

func TestCredentialsVerifiesSignatureWhenKeyConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen postgrest.Credentials
	var found bool
	router := credentialsRouterWithConfig(CredentialsConfig{Required: true, Secret: []byte(storeSecret)}, &seen, &found)

	forged := signedTokenWithKey(t, jwt.MapClaims{"username": "victim"}, "attacker-key")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a token signed with another key, got %d", recorder.Code)
	}
	if found {
		t.Fatalf("forged owner must not reach the handler: %+v", seen)
	}

	genuine := signedToken(t, jwt.MapClaims{"username": "victim"})
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+genuine)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent || seen.Username != "victim" {
		t.Fatalf("unexpected result for a valid token: %d %+v", recorder.Code, seen)
	}
}

func TestCredentialsRejectsExpiredAndUnsignedTokens(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen postgrest.Credentials
	var found bool
	router := credentialsRouterWithConfig(CredentialsConfig{Secret: []byte(storeSecret)}, &seen, &found)

	expired := signedToken(t, jwt.MapClaims{"username": "alice", "exp": time.Now().Add(-time.Hour).Unix()})
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"username": "alice"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	for name, token := range map[string]string{"expired": expired, "none": unsigned} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, recorder.Code)
		}
	}
	if found {
		t.Fatalf("rejected tokens must not reach the handler: %+v", seen)
	}
}
