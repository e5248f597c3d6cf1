package main

import (
	"log"
	"os"

	"trivia-showdown/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Printf("trivia-showdown: %v", err)
		os.Exit(1)
	}
}
