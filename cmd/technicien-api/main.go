package main

import (
	"log"

	"astrotech/internal/environment"
	"astrotech/internal/service"
)

func main() {
	if err := service.Run(environment.Technicien); err != nil {
		log.Fatalf("technicien-api: %v", err)
	}
}
