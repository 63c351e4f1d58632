package controllers

import (
	"net/http"
	"time"

	dbpkg "messenger/db"
	"messenger/models"
	"messenger/tools"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// POST /api/users
// Registra o usuário e já devolve um token, igual ao fluxo de login.
func CreateUser(c *gin.Context) {
	var req AuthRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	user := models.User{Email: req.Email, Password: req.Password}
	if missing := user.MissingFields(); missing != "" {
		RespondError(c, missing+" é obrigatório", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	var existing models.User
	if err := db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		RespondError(c, "email já cadastrado", http.StatusConflict)
		return
	}

	user.Password = encodePassword(req.Email, req.Password)
	if err := db.Create(&user).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	signed, err := issueToken(user)
	if err != nil {
		RespondError(c, "erro ao assinar token", http.StatusInternalServerError)
		return
	}

	RespondSuccess(c, AuthResponse{Token: signed, User: user})
}

// POST /api/login
func Login(c *gin.Context) {
	var req AuthRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		RespondError(c, "email e password são obrigatórios", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	var user models.User
	if err := db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		RespondError(c, "usuário ou senha inválidos", http.StatusUnauthorized)
		return
	}

	if user.Password != encodePassword(user.Email, req.Password) {
		RespondError(c, "usuário ou senha inválidos", http.StatusUnauthorized)
		return
	}

	signed, err := issueToken(user)
	if err != nil {
		RespondError(c, "erro ao assinar token", http.StatusInternalServerError)
		return
	}

	user.Password = ""
	RespondSuccess(c, AuthResponse{Token: signed, User: user})
}

// encodePassword: sha512(email + ":" + sha512(password))
func encodePassword(email, password string) string {
	enc := tools.EncryptTextSHA512(password)
	return tools.EncryptTextSHA512(email + ":" + enc)
}

func issueToken(user models.User) (string, error) {
	return signHS256JWT(getJWTSecret(), map[string]any{
		"sub":   user.ID,
		"email": user.Email,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(24 * time.Hour).Unix(),
	})
}
