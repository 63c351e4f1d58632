package controllers

import (
	"encoding/base64"
	"net/http"

	"messenger/tools"

	"github.com/gin-gonic/gin"
)

type ImageGenerationRequest struct {
	Model  string `json:"model" form:"model"`
	Prompt string `json:"prompt" form:"prompt"`
}

type FetchImageRequest struct {
	URL string `json:"url" form:"url"`
}

// POST /api/image-generation
// Passthrough: devolve a resposta crua do gateway.
func ImageGeneration(c *gin.Context) {
	var req ImageGenerationRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Model == "" || req.Prompt == "" {
		RespondError(c, "model e prompt são obrigatórios", http.StatusBadRequest)
		return
	}

	raw, err := tools.GenerateImageRaw(c.Request.Context(), req.Model, req.Prompt)
	if err != nil {
		RespondUpstreamError(c, "Image generation failed", err)
		return
	}

	c.Data(http.StatusOK, "application/json", raw)
}

// POST /api/fetch-image-base64
// Busca a imagem do lado do servidor só para contornar CORS no browser.
func FetchImageBase64(c *gin.Context) {
	var req FetchImageRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		RespondError(c, "url é obrigatório", http.StatusBadRequest)
		return
	}

	data, err := tools.FetchImage(c.Request.Context(), req.URL)
	if err != nil {
		RespondUpstreamError(c, "Failed to fetch image", err)
		return
	}

	RespondSuccess(c, gin.H{"base64": base64.StdEncoding.EncodeToString(data)})
}
