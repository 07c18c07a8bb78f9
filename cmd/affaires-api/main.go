package main

import (
	"log"

	"astrotech/internal/environment"
	"astrotech/internal/service"
)

func main() {
	if err := service.Run(environment.Affaires); err != nil {
		log.Fatalf("affaires-api: %v", err)
	}
}
