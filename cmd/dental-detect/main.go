package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/dental-detect/internal/config"
	"github.com/ironsheep/dental-detect/internal/controller"
	"github.com/ironsheep/dental-detect/internal/logger"
	"github.com/ironsheep/dental-detect/internal/mcp"
	"github.com/ironsheep/dental-detect/internal/predict"
	"github.com/ironsheep/dental-detect/internal/render"
	"github.com/ironsheep/dental-detect/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	mode := "serve"
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("dental-detect %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		case "serve", "mcp":
			mode = os.Args[1]
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
			printUsage()
			os.Exit(2)
		}
	}

	if err := run(mode); err != nil {
		fmt.Fprintf(os.Stderr, "dental-detect: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("dental-detect - dental X-ray disease detection front end")
	fmt.Println()
	fmt.Println("Usage: dental-detect [serve|mcp] [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve            Run the HTTP API and websocket viewer feed (default)")
	fmt.Println("  mcp              Serve MCP tools over stdin/stdout")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (a .env file is loaded if present):")
	fmt.Println("  DENTAL_CONFIG=path.toml       Configuration file")
	fmt.Println("  DENTAL_LOG_LEVEL=debug        Log level (debug, info, warning, error)")
	fmt.Println("  PREDICT_URL=http://host:5000  Prediction service")
	fmt.Println("  PREDICT_TIMEOUT=60s           Prediction request timeout")
	fmt.Println("  MAX_UPLOAD_MB=10              Upload size limit")
	fmt.Println("  HOST, PORT                    HTTP listen address")
	fmt.Println("  STATIC_DIR                    Directory served at /static")
	fmt.Println("  ALLOW_ORIGINS                 Comma separated CORS origins")
}

func run(mode string) error {
	cfg, err := config.FromEnvironment()
	if err != nil {
		return err
	}

	// Logs go to stderr; in mcp mode stdout carries the protocol.
	log := logger.Stderr(cfg.Level())
	log.Debug("dental-detect %s (built %s, commit %s)", Version, BuildTime, GitCommit)

	predictURL, err := cfg.PredictURL()
	if err != nil {
		return err
	}
	timeout, err := cfg.PredictTimeout()
	if err != nil {
		return err
	}

	opts := []predict.Option{predict.WithCatalog(cfg.Catalog())}
	for k, v := range cfg.Predict.Headers {
		opts = append(opts, predict.WithHeader(k, v))
	}
	client := predict.NewClient(predictURL, timeout, opts...)
	log.Info("Prediction service: %s (timeout %s)", client.Endpoint(), timeout)

	renderer := render.NewRenderer(cfg.Palette())
	surface := render.NewSurface(renderer, log)
	ctl := controller.New(client,
		controller.WithSink(surface),
		controller.WithIntakeOptions(cfg.IntakeOptions()),
		controller.WithLogger(log),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if mode == "mcp" {
		return mcp.New(ctl, renderer, surface, log, Version).Run(ctx)
	}

	if log.Level() != logger.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	hub := server.NewHub(renderer, log)
	ctl.AddSink(hub)

	srv := server.New(ctl, renderer, surface, hub, server.Options{
		StaticDir:    cfg.Server.StaticDir,
		AllowOrigins: cfg.Server.AllowOrigins,
		Version:      Version,
	}, log)
	return srv.ListenAndServe(ctx, cfg.Addr())
}
