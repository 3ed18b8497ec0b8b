package main

import (
	"github.com/reeltrack/core/internal/app"
	"github.com/reeltrack/core/internal/config"
)

func main() {
	app.Go(config.Load())
}
