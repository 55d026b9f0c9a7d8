package main

import (
	"flag"

	"go.uber.org/fx"

	"imsgd/internal/daemon"
	"imsgd/internal/paths"
)

func main() {
	configFlag := flag.String("config", paths.ConfigPath(), "path to the daemon config file")
	flag.Parse()

	app := fx.New(
		daemon.Module(daemon.Params{ConfigPath: *configFlag}),
	)

	app.Run()
}
