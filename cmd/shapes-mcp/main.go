package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/shapes-mcp/internal/config"
	"github.com/ironsheep/shapes-mcp/internal/imaging"
	"github.com/ironsheep/shapes-mcp/internal/logger"
	"github.com/ironsheep/shapes-mcp/internal/server"
	"github.com/ironsheep/shapes-mcp/internal/store"
	"github.com/ironsheep/shapes-mcp/internal/viewer"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var oncePath string
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("shapes-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		case "--once":
			if len(os.Args) < 3 {
				fmt.Fprintln(os.Stderr, "--once needs an image path")
				os.Exit(2)
			}
			oncePath = os.Args[2]
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	lg := logger.FromEnv()

	if err := config.LoadDotEnv(); err != nil {
		lg.Warning("%v", err)
	}
	cfgPath := config.Path()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	if oncePath != "" {
		if err := recognizeOnce(cfg, oncePath); err != nil {
			log.Fatalf("Recognition failed: %v", err)
		}
		return
	}

	lg.Debug("Shapes MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *store.DB
	if cfg.Paths.Database != "" {
		db, err = store.Open(cfg.Paths.Database)
		if err != nil {
			log.Fatalf("Database error: %v", err)
		}
		defer db.Close()
	}

	v := viewer.New(cfg.Display.HistoryLimit, cfg.Display.Scale, lg)
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Viewer.Addr != "" {
		serveViewer(gctx, g, v, cfg.Viewer.Addr, lg)
	}

	srv, err := server.New(server.Options{
		Config:     cfg,
		ConfigPath: cfgPath,
		Store:      db,
		Viewer:     v,
		Log:        lg,
	})
	if err != nil {
		log.Fatalf("Server error: %v", err)
	}

	// Scanning stdin does not observe ctx, so a signal only stops the worker.
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	select {
	case err = <-errCh:
	case <-ctx.Done():
		srv.Shutdown()
	}
	stop()
	if werr := g.Wait(); werr != nil {
		lg.Error("Viewer error: %v", werr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Server error: %v", err)
	}
}

// serveViewer runs the websocket hub and the HTTP listener until ctx ends.
func serveViewer(ctx context.Context, g *errgroup.Group, v *viewer.Viewer, addr string, lg *logger.Logger) {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           v.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		v.Hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		lg.Info("Viewer listening on http://%s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("viewer listener: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
}

// recognizeOnce prints the shapes found in one image as JSON.
func recognizeOnce(cfg *config.Config, path string) error {
	recognizer, err := cfg.Recognizer()
	if err != nil {
		return err
	}
	img, err := imaging.Open(path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"path":   path,
		"shapes": recognizer.Recognize(img),
	})
}

func printHelp() {
	fmt.Println("shapes-mcp - MCP server for shape and color recognition")
	fmt.Println()
	fmt.Println("Usage: shapes-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println("  --once <path>    Recognize one image, print JSON and exit")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  SHAPES_LOG_LEVEL=debug       Enable debug logging")
	fmt.Println("  SHAPES_CONFIG=<path>         Config file (default config.yaml)")
	fmt.Println("  SHAPES_INPUT_DIR=<dir>       Image folder for detection")
	fmt.Println("  SHAPES_OUTPUT_DIR=<dir>      Save annotated frames here")
	fmt.Println("  SHAPES_LOG_FILE=<path>       Detection log (default log.csv)")
	fmt.Println("  SHAPES_DB=<path>             Also record detections in SQLite")
	fmt.Println("  SHAPES_VIEWER_ADDR=<addr>    Serve the frame viewer over HTTP")
	fmt.Println("  SHAPES_CAMERA_DEVICE=<n>     Camera device index")
	fmt.Println("  SHAPES_COLOR_MODE=range|hue  Color classifier")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
}
