package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ikkim/lunchmap-backend/config"
	"github.com/ikkim/lunchmap-backend/internal/app/repository"
	"github.com/ikkim/lunchmap-backend/internal/db"
	"github.com/ikkim/lunchmap-backend/internal/export"
)

func main() {
	// 명령줄 인자 확인
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/export/main.go <xlsx_file_path>")
	}
	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	gdb, err := db.Open(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close(gdb)

	reviewRepo := repository.NewReviewRepository(gdb)

	rows, err := reviewRepo.ExportRows()
	if err != nil {
		log.Fatal("Failed to read reviews:", err)
	}
	fmt.Printf("Total reviews to export: %d\n", len(rows))

	if err := export.WriteReviews(rows, filePath); err != nil {
		log.Fatal("Failed to write XLSX:", err)
	}

	fmt.Printf("Export completed: %s\n", filePath)
}
