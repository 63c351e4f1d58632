package main

import (
	"log"
	"os"

	"messenger/config"
	"messenger/db"
	"messenger/router"
	"messenger/workers"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// =====================
// ENV esperadas
// =====================
//
// Server
// - PORT                (ex: 3001)
// - JWT_SECRET
// - AUTOMIGRATE         (1 para criar/atualizar tabelas no boot)
//
// Gateway (ProxyAPI)
// - PROXYAPI_KEY
// - GATEWAY_BASE_URL    (opcional, default api.proxyapi.ru/openai/v1)
//
// Image host (imgbb)
// - IMGBB_API_KEY
// - IMGBB_BASE_URL      (opcional)
// - IMGBB_DOMAIN        (opcional, para o worker reconhecer URLs já hospedadas)
//
// Worker
// - REHOST_DISABLED     (1 desliga o re-host em background)
//
// =====================

func main() {
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded .env")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}
	cfg := config.Get(configPath)

	db.SetConfigurations(cfg)
	database, err := db.Connect()
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	r := gin.New()
	r.Use(db.SetDBtoContext(database))
	router.Initialize(r, cfg)

	workers.StartRehostWorker(database)

	log.Printf("Messenger listening on :%s", cfg.ApiPort)
	log.Fatal(r.Run(":" + cfg.ApiPort))
}
