package main

import (
	"context"
	"embed"
	"log"
	"log/slog"
	"os"

	"quilt/internal/config"
	"quilt/internal/db"
	"quilt/internal/exports"
	"quilt/internal/history"
	"quilt/internal/logging"
	"quilt/internal/palette"
	"quilt/internal/studio"
	"quilt/internal/watch"

	"github.com/gogpu/gg"
	"github.com/wailsapp/wails/v3/pkg/application"
)

// Wails uses Go's `embed` package to embed the frontend files into the binary.
// Any files in the frontend/dist folder will be embedded into the binary and
// made available to the frontend.
// See https://pkg.go.dev/embed for more information.

//go:embed all:frontend/dist
var assets embed.FS

const historySessionsKept = 10

func init() {
	application.RegisterEvent[studio.View](studio.EventStateChanged)
	application.RegisterEvent[watch.Status](watch.EventStatus)
}

func main() {
	logger := logging.NewConsole(os.Stderr, logging.ParseLevel(os.Getenv("QUILT_LOG_LEVEL")))
	logging.SetLogger(logger)
	gg.SetLogger(logger)

	paths, err := config.ResolvePaths("quilt")
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	sqliteDB, err := db.Bootstrap(ctx, paths.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer sqliteDB.Close()

	historyRepo := history.NewRepository(sqliteDB)
	if pruned, err := historyRepo.Prune(ctx, historySessionsKept); err != nil {
		logger.Warn("prune history sessions", slog.Any("error", err))
	} else if pruned > 0 {
		logger.Debug("pruned history sessions", slog.Int64("count", pruned))
	}

	extractor := palette.NewExtractor(nil)
	studioDomain := studio.NewService(historyRepo, extractor)
	quiltService := NewQuiltService(studioDomain)
	paletteService := NewPaletteService(studioDomain, extractor)
	defer paletteService.StopFollowing()
	exportService := NewExportService(studioDomain, exports.NewRepository(sqliteDB), paths.ExportDir)
	bootstrapService := NewBootstrapService(studioDomain, paletteService, exportService)

	app := application.New(application.Options{
		Name:        "Quilt",
		Description: "Seeded quilt pattern generator",
		Services: []application.Service{
			application.NewService(bootstrapService),
			application.NewService(quiltService),
			application.NewService(paletteService),
			application.NewServiceWithOptions(exportService, application.ServiceOptions{
				Route: "/exports",
			}),
		},
		Assets: application.AssetOptions{
			Handler: application.AssetFileServerFS(assets),
		},
		Mac: application.MacOptions{
			ApplicationShouldTerminateAfterLastWindowClosed: true,
		},
	})

	studioDomain.SetEmitter(func(eventName string, payload any) {
		app.Event.Emit(eventName, payload)
	})
	paletteService.Watcher().SetEmitter(func(eventName string, payload any) {
		app.Event.Emit(eventName, payload)
	})

	app.Window.NewWithOptions(application.WebviewWindowOptions{
		Title: "Quilt",
		Mac: application.MacWindow{
			InvisibleTitleBarHeight: 50,
			Backdrop:                application.MacBackdropTranslucent,
			TitleBar:                application.MacTitleBarHiddenInset,
		},
		BackgroundColour: application.NewRGB(255, 255, 255),
		URL:              "/",
	})

	err = app.Run()
	if err != nil {
		log.Fatal(err)
	}
}
