package main

import (
	"github.com/alumni-connect/api/app"
	"github.com/gofiber/fiber/v2/log"
)

func main() {
	// setup and run app
	if err := app.SetupAndRunServer(); err != nil {
		log.Fatal(err)
	}
}
