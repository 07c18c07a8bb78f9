package main

import (
	"log"

	"astrotech/internal/environment"
	"astrotech/internal/service"
)

func main() {
	if err := service.Run(environment.Referent); err != nil {
		log.Fatalf("referent-api: %v", err)
	}
}
