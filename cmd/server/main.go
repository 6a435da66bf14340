package main

import (
	"github.com/lumen-fi/advisor/internal/server"
	"github.com/lumen-fi/advisor/internal/util"
	"github.com/lumen-fi/advisor/pkg/logger"
	"github.com/lumen-fi/advisor/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
