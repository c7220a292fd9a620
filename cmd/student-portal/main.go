// ABOUTME: Entry point for the student-portal local store and HTTP surface
// ABOUTME: Serves the front end and offers operator commands over the student records

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/2389/student-portal/internal/cass"
	"github.com/2389/student-portal/internal/config"
	"github.com/2389/student-portal/internal/portal"
	"github.com/2389/student-portal/internal/report"
	"github.com/2389/student-portal/internal/store"
)

// Version is set at build time.
var version = "dev"

const banner = `
     _             _            _                        _        _
 ___| |_ _   _  __| | ___ _ __ | |_      _ __   ___  _ __| |_ __ _| |
/ __| __| | | |/ _' |/ _ \ '_ \| __|____| '_ \ / _ \| '__| __/ _' | |
\__ \ |_| |_| | (_| |  __/ | | | ||_____| |_) | (_) | |  | || (_| | |
|___/\__|\__,_|\__,_|\___|_| |_|\__|    | .__/ \___/|_|   \__\__,_|_|
                                        |_|
`

// getConfigPath returns the path to the portal config file.
// Priority: STUDENT_PORTAL_CONFIG env var > XDG_CONFIG_HOME/student-portal/config.yaml > ~/.config/student-portal/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("STUDENT_PORTAL_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "student-portal", "config.yaml")
}

// getDataPath returns the path to the portal data directory.
// Priority: XDG_DATA_HOME/student-portal > ~/.local/share/student-portal
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "student-portal")
}

func printUsage() {
	fmt.Println("Usage: student-portal <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve                       Start the local HTTP server")
	fmt.Println("  init                        Write a default config file")
	fmt.Println("  add [flags]                 Add a student")
	fmt.Println("  list                        List all students")
	fmt.Println("  get <id>                    Show one student as JSON")
	fmt.Println("  delete <id>                 Delete a student")
	fmt.Println("  next-cass                   Print the score-entry page for the next student missing CASS scores")
	fmt.Println("  report                      Print the roster as markdown")
	fmt.Println("  version                     Print the version")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// A .env file is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: loading .env: %v\n", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit(args)
	case "add":
		err = runAdd(ctx, os.Stdout, args)
	case "list":
		err = runList(ctx, os.Stdout)
	case "get":
		err = runGet(ctx, os.Stdout, args)
	case "delete":
		err = runDelete(ctx, os.Stdout, args)
	case "next-cass":
		err = runNextCASS(ctx, os.Stdout)
	case "report":
		err = runReport(ctx, os.Stdout)
	case "version":
		fmt.Println(version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, falling back to defaults when there
// is none yet.
func loadConfig() (*config.Config, string, error) {
	path := getConfigPath()
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(getDataPath()), path, nil
	}
	if err != nil {
		return nil, path, fmt.Errorf("loading config: %w", err)
	}
	return cfg, path, nil
}

// openStore builds the store described by cfg. Nothing is opened yet.
func openStore(cfg *config.Config, logger *slog.Logger) *store.SQLiteStore {
	enrollment := store.DefaultEnrollment()
	enrollment.CodePrefix = cfg.Enrollment.CodePrefix
	enrollment.DateLayout = cfg.Enrollment.DateLayout

	return store.NewSQLiteStore(cfg.Database.Path,
		store.WithDriver(cfg.Database.Driver),
		store.WithEnrollment(enrollment),
		store.WithLogger(logger),
	)
}

func runServe(ctx context.Context) error {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, configPath, err := loadConfig()
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s (%s)\n", cfg.Database.Path, cfg.Database.Driver)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	fmt.Println()

	st := openStore(cfg, logger)
	defer st.Close()

	// Fail fast instead of on the first request
	if err := st.Open(ctx); err != nil {
		return err
	}

	logger.Info("starting student-portal",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"database", cfg.Database.Path,
	)

	srv := portal.New(st, portal.Config{
		HTTPAddr:        cfg.Server.HTTPAddr,
		EntryPage:       cfg.CASS.EntryPage,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		IdempotencyTTL:  cfg.Server.IdempotencyTTL,
	}, logger)

	return srv.Run(ctx)
}

func runInit(args []string) error {
	flags := flag.NewFlagSet("init", flag.ContinueOnError)
	force := flags.Bool("force", false, "overwrite an existing config file")
	if err := flags.Parse(args); err != nil {
		return err
	}

	path := getConfigPath()
	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	cfg := config.Default(getDataPath())
	if err := cfg.Write(path); err != nil {
		return err
	}

	color.Green("Wrote config to %s", path)
	fmt.Printf("Database will be created at %s on first use.\n", cfg.Database.Path)
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// cliLogger keeps operator commands quiet unless something goes wrong.
func cliLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// withStore loads config, builds the store and runs fn against it.
func withStore(fn func(st store.Store, cfg *config.Config) error) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	st := openStore(cfg, cliLogger())
	defer st.Close()
	return fn(st, cfg)
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func runReport(ctx context.Context, w io.Writer) error {
	return withStore(func(st store.Store, _ *config.Config) error {
		md, err := report.Roster(ctx, st)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, md)
		return err
	})
}

func runNextCASS(ctx context.Context, w io.Writer) error {
	return withStore(func(st store.Store, cfg *config.Config) error {
		student, err := cass.FirstMissingScores(ctx, st)
		if err != nil {
			return err
		}
		if student == nil {
			color.New(color.FgYellow).Fprintln(w, "No students with missing CASS scores found.")
			return nil
		}
		fmt.Fprintln(w, cass.EntryURL(cfg.CASS.EntryPage, student.ID))
		return nil
	})
}
