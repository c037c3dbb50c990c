package main

import (
	"log"

	"github.com/venkatnanaji21/Life-line-blood/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		log.Fatalln("Application init error:", err)
	}
	defer application.Close()

	if err := application.Run(); err != nil {
		log.Fatalln("Application run error:", err)
	}
}
