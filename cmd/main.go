// Package main is the production entry point for the attention music player.
//
// Build:
//
//	go build -o build/attention ./cmd
//
// Run:
//
//	./build/attention
//
// ATTENTION_LOG_LEVEL (DEBUG, INFO, WARN, ERROR) and ATTENTION_LOG_FORMAT
// (text, json) control logging.
package main

import (
	"log"

	"github.com/chasetripleseven/attention/internal/app"
)

func main() {
	config := app.DefaultConfig()

	// Without an audio device there is nothing to do
	application, err := app.NewApplication(config)
	if err != nil {
		log.Fatalf("attention: %v", err)
	}

	defer func() {
		if err := application.Shutdown(); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	// Run application (blocks until the window is closed)
	if err := application.Run(); err != nil {
		log.Printf("application error: %v", err)
	}
}
