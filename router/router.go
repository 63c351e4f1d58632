package router

import (
	"log"

	"messenger/config"
	"messenger/controllers"
	"messenger/middleware"

	"github.com/gin-gonic/gin"
)

// Initialize wires all routes and middlewares: public auth routes plus the
// authenticated dialog/message/attachment surface.
func Initialize(r *gin.Engine, cfg config.Configuration) {
	_ = cfg

	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	api := r.Group("/api")

	// Public (no auth)
	api.POST("/users", Logger(), controllers.CreateUser)
	api.POST("/login", Logger(), controllers.Login)

	// Authenticated routes (token required)
	auth := api.Group("")
	auth.Use(controllers.AuthRequired())

	// Dialogs
	auth.GET("/dialogs", Logger(), controllers.GetDialogs)
	auth.POST("/dialogs", Logger(), controllers.CreateDialog)
	auth.GET("/dialogs/:id", Logger(), controllers.GetDialogByID)
	auth.PATCH("/dialogs/:id", Logger(), controllers.UpdateDialog)
	auth.DELETE("/dialogs/:id", Logger(), controllers.DeleteDialog)

	// Messages
	auth.GET("/dialogs/:id/messages", Logger(), controllers.GetMessages)
	auth.POST("/dialogs/:id/messages", Logger(), controllers.SendMessage)

	// Attachments (reference images for vision / edit)
	auth.POST("/attachments", Logger(), controllers.UploadAttachments)

	// Relay side endpoints
	auth.POST("/image-generation", Logger(), controllers.ImageGeneration)
	auth.POST("/fetch-image-base64", Logger(), controllers.FetchImageBase64)

	log.Printf("Routes initialized")
}
