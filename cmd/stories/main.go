package main

import (
	"log"

	"stories/internal/ui"
)

func main() {
	log.SetPrefix("[stories] ")
	ui.CreateApplication()
}
