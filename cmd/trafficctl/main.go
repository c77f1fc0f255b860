package main

import (
	"os"

	"github.com/nvr-ai/go-traffic/cmd/trafficctl/app"
)

func main() {
	if err := app.NewCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
