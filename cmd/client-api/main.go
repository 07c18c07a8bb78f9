package main

import (
	"log"

	"astrotech/internal/environment"
	"astrotech/internal/service"
)

func main() {
	if err := service.Run(environment.Client); err != nil {
		log.Fatalf("client-api: %v", err)
	}
}
