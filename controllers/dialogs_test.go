package controllers_test

import (
	"net/http"
	"testing"

	"messenger/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDialogDefaults(t *testing.T) {
	r, _ := newTestServer(t)
	token := registerUser(t, r, "ana@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/dialogs", token, gin.H{"model": "gpt-4.1-mini"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Dialog models.Dialog `json:"dialog"`
	}
	decodeBody(t, w, &resp)
	assert.Equal(t, "New chat", resp.Dialog.Title)
	assert.Equal(t, "gpt-4.1-mini", resp.Dialog.Model)
	require.NotNil(t, resp.Dialog.Settings.Temperature)
	assert.Equal(t, 0.7, *resp.Dialog.Settings.Temperature)
}

func TestCreateDialogImageDefaults(t *testing.T) {
	r, _ := newTestServer(t)
	token := registerUser(t, r, "ana@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/dialogs", token, gin.H{
		"model": "gpt-image-1",
		"title": "Arte",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Dialog models.Dialog `json:"dialog"`
	}
	decodeBody(t, w, &resp)
	assert.Equal(t, "Arte", resp.Dialog.Title)
	assert.Nil(t, resp.Dialog.Settings.Temperature)
	assert.Equal(t, "1024x1024", resp.Dialog.Settings.Size)
	assert.Equal(t, "auto", resp.Dialog.Settings.Quality)
}

func TestCreateDialogRejectsBadModel(t *testing.T) {
	r, _ := newTestServer(t)
	token := registerUser(t, r, "ana@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/dialogs", token, gin.H{"model": "dall-e-3"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/dialogs", token, gin.H{"title": "sem model"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateDialogRejectsMismatchedSettings(t *testing.T) {
	r, _ := newTestServer(t)
	token := registerUser(t, r, "ana@example.com")

	// settings de imagem num model de texto
	w := doJSON(t, r, http.MethodPost, "/api/dialogs", token, gin.H{
		"model":    "gpt-4.1",
		"settings": gin.H{"size": "1024x1024"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetDialogsOrderAndPreview(t *testing.T) {
	r, _ := newTestServer(t)
	token := registerUser(t, r, "ana@example.com")

	first := createDialog(t, r, token, "gpt-4.1-mini")
	second := createDialog(t, r, token, "gpt-4o")

	w := doJSON(t, r, http.MethodGet, "/api/dialogs", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Dialogs []struct {
			ID          string          `json:"id"`
			LastMessage *models.Message `json:"last_message"`
		} `json:"dialogs"`
	}
	decodeBody(t, w, &resp)
	require.Len(t, resp.Dialogs, 2)

	ids := []string{resp.Dialogs[0].ID, resp.Dialogs[1].ID}
	assert.Contains(t, ids, first)
	assert.Contains(t, ids, second)
	// sem mensagens ainda, sem preview
	assert.Nil(t, resp.Dialogs[0].LastMessage)
}

func TestUpdateDialogSettings(t *testing.T) {
	r, _ := newTestServer(t)
	token := registerUser(t, r, "ana@example.com")
	id := createDialog(t, r, token, "gpt-4.1-mini")

	w := doJSON(t, r, http.MethodPatch, "/api/dialogs/"+id, token, gin.H{
		"title":    "Planejamento",
		"settings": gin.H{"temperature": 0.2},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Dialog models.Dialog `json:"dialog"`
	}
	decodeBody(t, w, &resp)
	assert.Equal(t, "Planejamento", resp.Dialog.Title)
	require.NotNil(t, resp.Dialog.Settings.Temperature)
	assert.Equal(t, 0.2, *resp.Dialog.Settings.Temperature)
}

func TestUpdateDialogRejectsSchemaMismatch(t *testing.T) {
	r, _ := newTestServer(t)
	token := registerUser(t, r, "ana@example.com")
	id := createDialog(t, r, token, "gpt-4.1-mini")

	// settings do schema de imagem num diálogo de texto
	w := doJSON(t, r, http.MethodPatch, "/api/dialogs/"+id, token, gin.H{
		"settings": gin.H{"size": "1024x1024", "quality": "auto", "output_format": "png", "background": "auto"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateDialogModelSwapResetsSettings(t *testing.T) {
	r, _ := newTestServer(t)
	token := registerUser(t, r, "ana@example.com")
	id := createDialog(t, r, token, "gpt-4.1-mini")

	// troca para model de imagem sem mandar settings: assume o default novo
	w := doJSON(t, r, http.MethodPatch, "/api/dialogs/"+id, token, gin.H{"model": "gpt-image-1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Dialog models.Dialog `json:"dialog"`
	}
	decodeBody(t, w, &resp)
	assert.Equal(t, "gpt-image-1", resp.Dialog.Model)
	assert.Nil(t, resp.Dialog.Settings.Temperature)
	assert.Equal(t, "1024x1024", resp.Dialog.Settings.Size)
}

func TestDeleteDialogCascades(t *testing.T) {
	r, database := newTestServer(t)
	token := registerUser(t, r, "ana@example.com")
	id := createDialog(t, r, token, "gpt-4.1-mini")

	// semeia mensagens direto no banco
	for _, role := range []string{models.MESSAGE_ROLE_USER, models.MESSAGE_ROLE_ASSISTANT} {
		require.NoError(t, database.Create(&models.Message{
			ID:       role + "-msg",
			DialogID: id,
			Role:     role,
			Content:  "x",
		}).Error)
	}

	w := doJSON(t, r, http.MethodDelete, "/api/dialogs/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var count int
	require.NoError(t, database.Model(&models.Message{}).Where("dialog_id = ?", id).Count(&count).Error)
	assert.Zero(t, count, "mensagens órfãs após delete")

	w = doJSON(t, r, http.MethodGet, "/api/dialogs/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDialogIsolationBetweenUsers(t *testing.T) {
	r, _ := newTestServer(t)
	tokenA := registerUser(t, r, "ana@example.com")
	tokenB := registerUser(t, r, "bia@example.com")

	id := createDialog(t, r, tokenA, "gpt-4.1-mini")

	w := doJSON(t, r, http.MethodGet, "/api/dialogs/"+id, tokenB, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "diálogo alheio não pode vazar")

	w = doJSON(t, r, http.MethodGet, "/api/dialogs", tokenB, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Dialogs []models.Dialog `json:"dialogs"`
	}
	decodeBody(t, w, &resp)
	assert.Empty(t, resp.Dialogs)
}

func TestDialogBadID(t *testing.T) {
	r, _ := newTestServer(t)
	token := registerUser(t, r, "ana@example.com")

	w := doJSON(t, r, http.MethodGet, "/api/dialogs/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
