package main

import (
	"context"
	"log"
	"os"

	"github.com/MrEthical07/reporterAuth/internal/app"
	"github.com/MrEthical07/reporterAuth/internal/config"
)

func main() {
	ctx := context.Background()
	cfg := config.MustLoad(config.Path())

	a, err := app.New(ctx, cfg, os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Printf("close: %v", err)
		}
	}()

	if err := a.Run(ctx); err != nil {
		log.Printf("%v", err)
	}
}
