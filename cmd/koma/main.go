package main

import (
	"log"
	"os"

	"github.com/lexai/koma/internal/app"
)

func main() {
	if err := app.Run(os.Args[1:]); err != nil {
		log.Fatalf("koma: %v", err)
	}
}
