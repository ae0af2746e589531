package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"earntube/internal/db"
	"earntube/internal/logger"
	"earntube/internal/migrations"
)

func main() {
	apply := flag.Bool("apply", false, "apply migrations (default lists them)")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_JSON") == "true")

	if !*apply {
		names, err := migrations.Names()
		if err != nil {
			logger.Fatal("list migrations", "error", err)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}
	pool := db.Connect(dsn)
	defer pool.Close()

	err := migrations.Apply(context.Background(), pool, func(name string) {
		logger.Info("applied migration", "file", name)
	})
	if err != nil {
		logger.Fatal("migration failed", "error", err)
	}
}
