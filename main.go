package main

import (
	"github.com/david-fold-studio/life-sphere-habits/core/logger"
	"github.com/david-fold-studio/life-sphere-habits/core/server"
)

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", "error", err)
	}
}
