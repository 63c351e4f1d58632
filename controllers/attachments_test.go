package controllers_test

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"messenger/controllers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type attachmentFile struct {
	name        string
	contentType string
	data        []byte
}

func postAttachments(t *testing.T, r *gin.Engine, token string, fields map[string]string, files []attachmentFile) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	for _, f := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images[]"; filename=%q`, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/attachments", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadAttachmentsNormalizesToFirst(t *testing.T) {
	r, _ := newTestServer(t)
	stubImageHost(t)
	token := registerUser(t, r, "ana@example.com")

	// 1024x1024 primeiro: o 800x600 sai cropado/escalado para 1024x1024
	w := postAttachments(t, r, token, nil, []attachmentFile{
		{"a.png", "image/png", pngBytes(t, 1024, 1024)},
		{"b.png", "image/png", pngBytes(t, 800, 600)},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Attachments []controllers.AttachmentResult `json:"attachments"`
	}
	decodeBody(t, w, &resp)
	require.Len(t, resp.Attachments, 2)
	for _, a := range resp.Attachments {
		assert.Empty(t, a.Error)
		assert.Equal(t, "https://i.ibb.co/hosted/result.png", a.URL)
		assert.Equal(t, 1024, a.Width)
		assert.Equal(t, 1024, a.Height)
	}
}

func TestUploadAttachmentsRespectsExistingTarget(t *testing.T) {
	r, _ := newTestServer(t)
	stubImageHost(t)
	token := registerUser(t, r, "ana@example.com")

	// já existe um anexo 1536x1024: o novo segue essas dimensões
	w := postAttachments(t, r, token, map[string]string{
		"attached":      "1",
		"target_width":  "1536",
		"target_height": "1024",
	}, []attachmentFile{
		{"c.png", "image/png", pngBytes(t, 640, 640)},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Attachments []controllers.AttachmentResult `json:"attachments"`
	}
	decodeBody(t, w, &resp)
	require.Len(t, resp.Attachments, 1)
	assert.Equal(t, 1536, resp.Attachments[0].Width)
	assert.Equal(t, 1024, resp.Attachments[0].Height)
}

func TestUploadAttachmentsBatchValidation(t *testing.T) {
	r, _ := newTestServer(t)
	token := registerUser(t, r, "ana@example.com")

	// tipo não suportado derruba o lote inteiro
	w := postAttachments(t, r, token, nil, []attachmentFile{
		{"a.png", "image/png", pngBytes(t, 32, 32)},
		{"b.gif", "image/gif", []byte("GIF89a")},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// acima do limite de 4 contando os já anexados
	w = postAttachments(t, r, token, map[string]string{
		"attached":      "3",
		"target_width":  "32",
		"target_height": "32",
	}, []attachmentFile{
		{"a.png", "image/png", pngBytes(t, 32, 32)},
		{"b.png", "image/png", pngBytes(t, 32, 32)},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// arquivo acima de 25MB derruba o lote inteiro, mesmo com outro válido
	oversized := make([]byte, controllers.MAX_ATTACHMENT_BYTES+1)
	w = postAttachments(t, r, token, nil, []attachmentFile{
		{"a.png", "image/png", pngBytes(t, 32, 32)},
		{"huge.png", "image/png", oversized},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// attached > 0 exige as dimensões do alvo
	w = postAttachments(t, r, token, map[string]string{"attached": "1"}, []attachmentFile{
		{"a.png", "image/png", pngBytes(t, 32, 32)},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// sem arquivos
	w = postAttachments(t, r, token, nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadAttachmentsIsolatesFileErrors(t *testing.T) {
	r, _ := newTestServer(t)
	stubImageHost(t)
	token := registerUser(t, r, "ana@example.com")

	// decode quebrado num arquivo não derruba os demais
	w := postAttachments(t, r, token, nil, []attachmentFile{
		{"ok.png", "image/png", pngBytes(t, 32, 32)},
		{"broken.png", "image/png", []byte("not a png")},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Attachments []controllers.AttachmentResult `json:"attachments"`
	}
	decodeBody(t, w, &resp)
	require.Len(t, resp.Attachments, 2)
	assert.Empty(t, resp.Attachments[0].Error)
	assert.NotEmpty(t, resp.Attachments[0].URL)
	assert.NotEmpty(t, resp.Attachments[1].Error)
	assert.Empty(t, resp.Attachments[1].URL)
}
