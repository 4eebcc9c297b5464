// Package main is the entry point for the medextract server.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/medextract/internal/medextract"
)

func main() {
	medextract.NewApp().Run()
}
