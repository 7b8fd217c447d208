package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"pharmawarehouse/m/internal/api"
	"pharmawarehouse/m/internal/config"
	"pharmawarehouse/m/internal/database"
	"pharmawarehouse/m/internal/migrations"
	"pharmawarehouse/m/internal/seed"
	"pharmawarehouse/m/internal/warehouse"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	db := database.Connect(cfg.DatabaseDSN)
	defer db.Close()

	migrations.Run(db)
	seed.LoadCatalog(db, cfg.CatalogCSV)

	handler := api.New(db, warehouse.New(db), cfg.Secret)

	log.Printf("pharmacy warehouse server starting on :%s", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
