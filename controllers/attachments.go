package controllers

import (
	"encoding/base64"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"messenger/tools"

	"github.com/gin-gonic/gin"
)

const MAX_ATTACHMENTS = 4
const MAX_ATTACHMENT_BYTES = 25 * 1024 * 1024

// declared type -> encoder usado depois da normalização
var allowedAttachmentTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpeg",
	"image/webp": "webp",
}

type AttachmentResult struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Error  string `json:"error,omitempty"`
}

// POST /api/attachments
// Normaliza o lote (crop central para a proporção do primeiro anexo) e sobe
// cada imagem para o image host. Validações de lote derrubam o request
// inteiro; falha de decode/upload é isolada por arquivo.
//
// Form fields:
//   images[]       até 4 arquivos (menos os já anexados)
//   attached       quantos anexos a mensagem já tem (default 0)
//   target_width   dimensões do primeiro anexo já existente
//   target_height  (obrigatórios quando attached > 0)
func UploadAttachments(c *gin.Context) {
	if _, ok := GetUserLogged(c); !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	files := form.File["images[]"]
	if len(files) == 0 {
		files = form.File["images"]
	}
	if len(files) == 0 {
		RespondError(c, "images é obrigatório", http.StatusBadRequest)
		return
	}

	attached, _ := strconv.Atoi(c.PostForm("attached"))
	if attached+len(files) > MAX_ATTACHMENTS {
		RespondError(c, "no máximo 4 imagens por mensagem", http.StatusBadRequest)
		return
	}

	for _, fh := range files {
		if _, ok := allowedAttachmentTypes[fh.Header.Get("Content-Type")]; !ok {
			RespondError(c, "apenas PNG, JPEG ou WebP", http.StatusBadRequest)
			return
		}
		if fh.Size > MAX_ATTACHMENT_BYTES {
			RespondError(c, "cada imagem deve ter no máximo 25MB", http.StatusBadRequest)
			return
		}
	}

	targetW, _ := strconv.Atoi(c.PostForm("target_width"))
	targetH, _ := strconv.Atoi(c.PostForm("target_height"))
	if attached > 0 && (targetW <= 0 || targetH <= 0) {
		RespondError(c, "target_width e target_height são obrigatórios quando já existem anexos", http.StatusBadRequest)
		return
	}

	results := make([]AttachmentResult, len(files))
	for i, fh := range files {
		results[i] = processAttachment(c, fh, &targetW, &targetH)
	}

	RespondSuccess(c, gin.H{"attachments": results})
}

// processAttachment decodifica, normaliza e sobe um arquivo. O primeiro
// arquivo decodificado define o alvo quando ainda não há dimensões fixadas.
func processAttachment(c *gin.Context, fh *multipart.FileHeader, targetW, targetH *int) AttachmentResult {
	f, err := fh.Open()
	if err != nil {
		return AttachmentResult{Error: err.Error()}
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return AttachmentResult{Error: err.Error()}
	}

	img, _, err := tools.DecodeImage(data)
	if err != nil {
		return AttachmentResult{Error: err.Error()}
	}

	if *targetW <= 0 || *targetH <= 0 {
		b := img.Bounds()
		*targetW, *targetH = b.Dx(), b.Dy()
	}

	normalized := tools.NormalizeToSize(img, *targetW, *targetH)
	format := allowedAttachmentTypes[fh.Header.Get("Content-Type")]
	encoded, err := tools.EncodeImage(normalized, format)
	if err != nil {
		return AttachmentResult{Error: err.Error()}
	}

	url, err := tools.UploadImage(c.Request.Context(), base64.StdEncoding.EncodeToString(encoded))
	if err != nil {
		return AttachmentResult{Width: *targetW, Height: *targetH, Error: err.Error()}
	}

	return AttachmentResult{URL: url, Width: *targetW, Height: *targetH}
}
