package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/mmcdole/gifterm/internal/config"
	"github.com/mmcdole/gifterm/internal/giphy"
	"github.com/mmcdole/gifterm/internal/log"
	"github.com/mmcdole/gifterm/internal/metrics"
	"github.com/mmcdole/gifterm/internal/player"
	"github.com/mmcdole/gifterm/internal/search"
	"github.com/mmcdole/gifterm/internal/service"
	"github.com/mmcdole/gifterm/internal/store"
	"github.com/mmcdole/gifterm/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var (
		showVersion bool
		listSaved   bool
		configFile  string
	)
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&listSaved, "list", false, "list saved GIFs and exit")
	flag.StringVar(&configFile, "config", "", "path to config file")
	flag.Parse()

	if showVersion {
		fmt.Printf("gifterm %s\n", Version)
		return
	}

	if err := run(configFile, listSaved); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string, listSaved bool) error {
	// Load configuration
	cfg, v, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger, err := log.Setup(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting gifterm", "version", Version)

	library, err := store.NewLibrary(cfg.Library.Path)
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer library.Close()

	if listSaved {
		return printLibrary(library)
	}

	apiKey, err := config.APIKey(v)
	if err != nil {
		apiKey, err = promptAPIKey(err)
		if err != nil {
			return err
		}
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("gifterm needs an interactive terminal")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	if cfg.Metrics.Listen != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Listen, m, logger); err != nil {
				logger.Error("metrics listener stopped", "error", err)
			}
		}()
	}

	// Create provider client
	client := giphy.NewClient(giphy.Config{
		APIKey:  apiKey,
		BaseURL: cfg.Giphy.BaseURL,
		Rating:  cfg.Giphy.Rating,
		Lang:    cfg.Giphy.Lang,
		Timeout: cfg.Giphy.Timeout,
	}, logger, m)

	controller := search.NewController(client,
		search.WithContext(ctx),
		search.WithDebounce(cfg.Search.Debounce),
		search.WithPageSize(cfg.Giphy.PageSize),
		search.WithLogger(logger),
		search.WithMetrics(m),
	)
	defer controller.Close()

	// Create launcher (uses configured player or auto-detects)
	launcher := player.NewLauncher(cfg.Player.Command, cfg.Player.Args, logger)

	// Create services
	saveSvc := service.NewSaveService(library, &http.Client{Timeout: cfg.Giphy.Timeout}, m, logger)
	playbackSvc := service.NewPlaybackService(launcher, logger)

	model := tui.NewModel(controller, saveSvc, playbackSvc)

	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI", "library", library.Path(), "memory_only", library.IsMemoryOnly())

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// promptAPIKey asks for a key for this session when none is configured.
// Invalid configuration is returned unchanged.
func promptAPIKey(cause error) (string, error) {
	var secretErr *config.SecretError
	if !errors.As(cause, &secretErr) || secretErr.Reason != config.ReasonMissing ||
		!term.IsTerminal(int(os.Stdin.Fd())) {
		return "", cause
	}

	fmt.Println()
	fmt.Println("Welcome to gifterm!")
	fmt.Println()
	fmt.Printf("No %s found. Create one at https://developers.giphy.com/dashboard/\n", config.APIKeyName)
	fmt.Print("API key: ")
	keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}

	key := strings.TrimSpace(string(keyBytes))
	if key == "" {
		return "", cause
	}

	fmt.Printf("Set %s in your environment or .env to skip this prompt.\n", config.APIKeyName)
	fmt.Print("Press enter to continue...")
	_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
	return key, nil
}

func printLibrary(library *store.Library) error {
	assets, err := library.ListAssets()
	if err != nil {
		return fmt.Errorf("failed to list library: %w", err)
	}
	if len(assets) == 0 {
		fmt.Println("No saved GIFs.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SAVED\tKIND\tSIZE\tTITLE\tSOURCE")
	for _, a := range assets {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			a.SavedAt.Local().Format("2006-01-02 15:04"), a.Kind, a.Size, a.Title, a.SourceURL)
	}
	return w.Flush()
}
