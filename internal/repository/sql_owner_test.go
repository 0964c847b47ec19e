package repository

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UniversalTze/FormBase/internal/middleware"
)

func ownerScopedRouter(repo *FormSQLRepository, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.Credentials(middleware.CredentialsConfig{Required: true, Secret: []byte(secret)}))
	router.GET("/forms", func(c *gin.Context) {
		forms, err := repo.List(c.Request.Context())
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, forms)
	})
	return router
}

func bearer(t *testing.T, key, username string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"username": username}).SignedString([]byte(key))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestFormSQLRepositoryIgnoresOwnerFromForgedToken(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	router := ownerScopedRouter(NewFormSQLRepository(db, "s1234"), "store-secret")

	req := httptest.NewRequest(http.MethodGet, "/forms", nil)
	req.Header.Set("Authorization", bearer(t, "attacker-key", "victim"))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFormSQLRepositoryScopesToVerifiedOwner(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	router := ownerScopedRouter(NewFormSQLRepository(db, "s1234"), "store-secret")

	rows := sqlmock.NewRows([]string{"id", "name", "description", "username"}).AddRow(9, "secret", "", "victim")
	mock.ExpectQuery("SELECT id, name").WithArgs("victim").WillReturnRows(rows)

	req := httptest.NewRequest(http.MethodGet, "/forms", nil)
	req.Header.Set("Authorization", bearer(t, "store-secret", "victim"))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	var forms []map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &forms))
	require.Len(t, forms, 1)
	assert.Equal(t, "victim", forms[0]["username"])
	require.NoError(t, mock.ExpectationsWereMet())
}
