package main

import (
	"embed"
	"log"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"whisperkey/internal/config"
	"whisperkey/internal/logging"
)

//go:embed frontend/index.html
var assets embed.FS

func main() {
	opts, err := config.LoadOptions()
	if err != nil {
		log.Fatalf("load options: %v", err)
	}
	logger := logging.New(opts.LogLevel, opts.LogPretty)

	app := NewApp(opts, logger)
	err = wails.Run(&options.App{
		Title:  "WhisperKey",
		Width:  420,
		Height: 560,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind:       []interface{}{app},
	})
	if err != nil {
		log.Fatalf("run app: %v", err)
	}
}
