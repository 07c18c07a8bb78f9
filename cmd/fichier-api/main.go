package main

import (
	"log"

	"astrotech/internal/environment"
	"astrotech/internal/service"
)

func main() {
	if err := service.Run(environment.Fichier); err != nil {
		log.Fatalf("fichier-api: %v", err)
	}
}
