package controllers

import (
	"net/http"

	dbpkg "messenger/db"
	"messenger/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
)

// requireDB pega o *gorm.DB do contexto ou responde 500.
func requireDB(c *gin.Context) (*gorm.DB, bool) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return nil, false
	}
	return db, true
}

// dialogForUser resolves :id to a dialog owned by the caller. Other users'
// dialogs come back as 404 — the per-user tree never leaks across partitions.
func dialogForUser(c *gin.Context, db *gorm.DB, user models.User) (models.Dialog, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		RespondError(c, "id inválido", http.StatusBadRequest)
		return models.Dialog{}, false
	}

	var dialog models.Dialog
	if err := db.Where("id = ? AND user_id = ?", id, user.ID).First(&dialog).Error; err != nil {
		RespondError(c, "dialog não encontrado", http.StatusNotFound)
		return models.Dialog{}, false
	}
	return dialog, true
}
