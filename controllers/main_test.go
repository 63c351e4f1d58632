package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"messenger/config"
	"messenger/controllers"
	"messenger/db"
	"messenger/router"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/require"
)

// newTestServer sobe o stack completo (gin + rotas + sqlite em memória).
// MaxOpenConns(1) porque cada conexão nova do driver enxerga um :memory:
// diferente.
func newTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("REHOST_DISABLED", "1")

	database, err := gorm.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	database.DB().SetMaxOpenConns(1)
	db.Migrate(database)
	t.Cleanup(func() { database.Close() })

	r := gin.New()
	r.Use(db.SetDBtoContext(database))
	router.Initialize(r, config.Configuration{})
	return r, database
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

// registerUser cria um usuário e devolve o token da resposta.
func registerUser(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/users", "", gin.H{
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp controllers.AuthResponse
	decodeBody(t, w, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// createDialog cria um diálogo com defaults do model e devolve o ID.
func createDialog(t *testing.T, r *gin.Engine, token, model string) string {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/dialogs", token, gin.H{"model": model})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Dialog struct {
			ID string `json:"id"`
		} `json:"dialog"`
	}
	decodeBody(t, w, &resp)
	require.NotEmpty(t, resp.Dialog.ID)
	return resp.Dialog.ID
}
