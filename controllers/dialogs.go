package controllers

import (
	"net/http"

	"messenger/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DialogRequest struct {
	Title    string           `json:"title" form:"title"`
	Model    string           `json:"model" form:"model"`
	Settings *models.Settings `json:"settings"`
}

// DialogPreview é o item da listagem: o diálogo mais a última mensagem.
type DialogPreview struct {
	models.Dialog
	LastMessage *models.Message `json:"last_message,omitempty"`
}

// GET /api/dialogs
// Lista os diálogos do usuário por updated_at desc, com preview da última
// mensagem de cada um.
func GetDialogs(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	db, ok := requireDB(c)
	if !ok {
		return
	}

	var dialogs []models.Dialog
	if err := db.Where("user_id = ?", user.ID).Order("updated_at desc").Find(&dialogs).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	previews := make([]DialogPreview, 0, len(dialogs))
	for _, d := range dialogs {
		preview := DialogPreview{Dialog: d}
		var last models.Message
		if err := db.Where("dialog_id = ?", d.ID).Order("created_at desc").First(&last).Error; err == nil {
			preview.LastMessage = &last
		}
		previews = append(previews, preview)
	}

	RespondSuccess(c, gin.H{"dialogs": previews})
}

// POST /api/dialogs
func CreateDialog(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req DialogRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Model == "" {
		RespondError(c, "model é obrigatório", http.StatusBadRequest)
		return
	}
	if _, known := models.KindOfModel(req.Model); !known {
		RespondError(c, "model desconhecido: "+req.Model, http.StatusBadRequest)
		return
	}

	settings := models.DefaultSettings(req.Model)
	if req.Settings != nil {
		settings = *req.Settings
	}
	if err := models.ValidateSettings(req.Model, settings); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	db, ok := requireDB(c)
	if !ok {
		return
	}

	title := req.Title
	if title == "" {
		title = "New chat"
	}

	dialog := models.Dialog{
		ID:       uuid.NewString(),
		UserID:   user.ID,
		Title:    title,
		Model:    req.Model,
		Settings: settings,
	}
	if err := db.Create(&dialog).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	RespondSuccess(c, gin.H{"dialog": dialog})
}

// GET /api/dialogs/:id
func GetDialogByID(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	db, ok := requireDB(c)
	if !ok {
		return
	}
	dialog, ok := dialogForUser(c, db, user)
	if !ok {
		return
	}

	var messages []models.Message
	if err := db.Where("dialog_id = ?", dialog.ID).Order("created_at asc").Find(&messages).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	RespondSuccess(c, gin.H{"dialog": dialog, "messages": messages})
}

// PATCH /api/dialogs/:id
// Salva o editor de configurações: title, model e settings trocados em bloco.
// Settings sempre validados contra o model final — nunca sobra um resto do
// schema antigo.
func UpdateDialog(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	db, ok := requireDB(c)
	if !ok {
		return
	}
	dialog, ok := dialogForUser(c, db, user)
	if !ok {
		return
	}

	var req DialogRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Title != "" {
		dialog.Title = req.Title
	}
	if req.Model != "" {
		if _, known := models.KindOfModel(req.Model); !known {
			RespondError(c, "model desconhecido: "+req.Model, http.StatusBadRequest)
			return
		}
		dialog.Model = req.Model
	}
	if req.Settings != nil {
		dialog.Settings = *req.Settings
	} else if req.Model != "" {
		// trocou de model sem mandar settings: assume o default do novo schema
		dialog.Settings = models.DefaultSettings(dialog.Model)
	}

	if err := models.ValidateSettings(dialog.Model, dialog.Settings); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	if err := db.Save(&dialog).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	RespondSuccess(c, gin.H{"dialog": dialog})
}

// DELETE /api/dialogs/:id
// Remove as mensagens filhas e depois o próprio diálogo.
func DeleteDialog(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	db, ok := requireDB(c)
	if !ok {
		return
	}
	dialog, ok := dialogForUser(c, db, user)
	if !ok {
		return
	}

	if err := db.Delete(&models.Message{}, "dialog_id = ?", dialog.ID).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if err := db.Delete(&models.Dialog{}, "id = ?", dialog.ID).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	RespondSuccess(c, gin.H{"status": "deleted"})
}
