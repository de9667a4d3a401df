package main

import (
	"log"

	"spotix/cmd"

	_ "spotix/migrations"
)

func main() {
	if err := cmd.Start(); err != nil {
		log.Fatal(err)
	}
}
