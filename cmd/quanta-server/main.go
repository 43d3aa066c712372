// ABOUTME: Entry point for the quanta content platform server
// ABOUTME: Serves the admin UI and student API over HTTP or Tailscale

package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/CodeGallantX/quanta/internal/auth"
	"github.com/CodeGallantX/quanta/internal/config"
	"github.com/CodeGallantX/quanta/internal/server"
	"github.com/CodeGallantX/quanta/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
   __ _ _   _  __ _ _ __ | |_ __ _
  / _' | | | |/ _' | '_ \| __/ _' |
 | (_| | |_| | (_| | | | | || (_| |
  \__, |\__,_|\__,_|_| |_|\__\__,_|
     |_|
`

// getConfigPath returns the path to the server config file.
// Priority: QUANTA_CONFIG env var > XDG_CONFIG_HOME/quanta/server.yaml > ~/.config/quanta/server.yaml
func getConfigPath() string {
	if envPath := os.Getenv("QUANTA_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "server.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "quanta", "server.yaml")
}

// getDataPath returns the path to the quanta data directory.
// Priority: XDG_DATA_HOME/quanta > ~/.local/share/quanta
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "quanta")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: quanta-server <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve                             Start the server")
		fmt.Println("  init                              Create a new config file interactively")
		fmt.Println("  bootstrap --email ADDR --name N   Create the first admin account")
		fmt.Println("  token --email ADDR                Issue a student API token")
		fmt.Println("  health                            Check server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "bootstrap":
		err = runBootstrap(ctx)
	case "token":
		err = runToken(ctx)
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)

	if cfg.Tailscale.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Tailscale: ")
		cyan.Print(cfg.Tailscale.Hostname)
		if cfg.Tailscale.Funnel {
			yellow.Print(" [funnel]")
		}
		if cfg.Tailscale.Ephemeral {
			gray.Print(" (ephemeral)")
		}
		fmt.Println()
	}

	if cfg.Auth.OpenSignup {
		yellow.Print("    ! ")
		fmt.Println("Open admin signup is enabled; disable it after bootstrapping")
	}

	fmt.Println()

	logger.Info("starting quanta-server",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	sqlStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlStore.Close()

	srv := server.New(cfg, sqlStore, logger)
	return srv.Run(ctx)
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
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

func runHealth(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

// parseFlagValue extracts "--flag value" or "--flag=value" style arguments.
func parseFlagValue(args []string, out map[string]*string) error {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		matched := false
		for name, dest := range out {
			long := "--" + name
			switch {
			case arg == long:
				if i+1 >= len(args) {
					return fmt.Errorf("%s requires a value", long)
				}
				*dest = args[i+1]
				i++
				matched = true
			case strings.HasPrefix(arg, long+"="):
				*dest = strings.TrimPrefix(arg, long+"=")
				matched = true
			}
			if matched {
				break
			}
		}
		if !matched {
			return fmt.Errorf("unknown argument: %s", arg)
		}
	}
	return nil
}

// runBootstrap performs first-time setup:
// 1. Creates config file with a random JWT secret (if not exists)
// 2. Creates the database and the first admin account
// 3. Prints the generated password once
//
// One-command setup: quanta-server bootstrap --email you@school.edu --name "Your Name"
func runBootstrap(ctx context.Context) error {
	var email, name string
	if err := parseFlagValue(os.Args[2:], map[string]*string{
		"email": &email,
		"name":  &name,
	}); err != nil {
		return err
	}

	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("--email is required and must be a valid address")
	}
	if name == "" {
		return fmt.Errorf("--name is required")
	}
	if len(name) > 100 {
		return fmt.Errorf("name exceeds maximum length of 100 characters")
	}

	configPath := getConfigPath()
	dataPath := getDataPath()
	dbPath := filepath.Join(dataPath, "quanta.db")

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	var cfg *config.Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		secretBytes := make([]byte, 32)
		if _, err := rand.Read(secretBytes); err != nil {
			return fmt.Errorf("generating JWT secret: %w", err)
		}
		jwtSecret := base64.StdEncoding.EncodeToString(secretBytes)

		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
		if err := os.MkdirAll(dataPath, 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}

		configContent := fmt.Sprintf(`# quanta-server configuration
# Generated by quanta-server bootstrap

server:
  http_addr: "localhost:8080"

database:
  path: "%s"

auth:
  jwt_secret: "%s"
  open_signup: false

logging:
  level: "info"
  format: "text"
`, dbPath, jwtSecret)

		if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}

		green.Printf("  ✓ Created config: %s\n", configPath)

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	} else {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		cyan.Printf("  Using existing config: %s\n", configPath)
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	green.Printf("  ✓ Database: %s\n", cfg.Database.Path)

	count, err := s.CountAdminUsers(ctx)
	if err != nil {
		return fmt.Errorf("checking admin users: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("bootstrap already complete: %d admin account(s) exist", count)
	}

	// Generate a password the admin changes after first login
	passwordBytes := make([]byte, 12)
	if _, err := rand.Read(passwordBytes); err != nil {
		return fmt.Errorf("generating password: %w", err)
	}
	password := base64.RawURLEncoding.EncodeToString(passwordBytes)

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user := &store.AdminUser{
		ID:           uuid.New().String(),
		Email:        email,
		FullName:     name,
		Role:         "admin",
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.CreateAdminUser(ctx, user); err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	green.Printf("  ✓ Created admin account: %s\n", email)

	fmt.Println()
	green.Println("  Bootstrap complete!")
	fmt.Println()
	cyan.Println("  Admin Account")
	cyan.Println("  -------------")
	fmt.Printf("  ID:       %s\n", user.ID)
	fmt.Printf("  Email:    %s\n", email)
	fmt.Printf("  Name:     %s\n", name)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	yellow.Println("  The password is shown only once. Store it safely.")
	fmt.Println()
	yellow.Println("  Ready to go:")
	fmt.Println("    quanta-server serve    # start the server")
	fmt.Println("    quanta-admin login     # sign in from the console")
	fmt.Println()

	return nil
}

// runToken issues a student API token for an enrolled student.
func runToken(ctx context.Context) error {
	var email, ttlStr string
	if err := parseFlagValue(os.Args[2:], map[string]*string{
		"email": &email,
		"ttl":   &ttlStr,
	}); err != nil {
		return err
	}

	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return fmt.Errorf("--email is required")
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is not configured")
	}

	ttl := cfg.Auth.TokenDuration
	if ttlStr != "" {
		ttl, err = time.ParseDuration(ttlStr)
		if err != nil {
			return fmt.Errorf("parsing --ttl: %w", err)
		}
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	student, err := s.GetStudentByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no student enrolled with email %s", email)
		}
		return fmt.Errorf("looking up student: %w", err)
	}

	verifier := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	token, err := verifier.Generate(student.ID, ttl)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	fmt.Println(token)
	return nil
}

// runInit walks through the config surface interactively and writes the
// answers out as YAML, the same document Load reads back.
func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("quanta-server configuration setup")
	fmt.Println("=================================")
	fmt.Println()

	outputFile := prompt(reader, "Config file path", getConfigPath())
	if _, err := os.Stat(outputFile); err == nil {
		if !promptYes(reader, "File exists. Overwrite?") {
			fmt.Println("Aborted.")
			return nil
		}
	}

	var cfg config.Config
	cfg.Server.HTTPAddr = prompt(reader, "HTTP address", "localhost:8080")
	cfg.Database.Path = prompt(reader, "SQLite database path", filepath.Join(getDataPath(), "quanta.db"))
	cfg.Auth.JWTSecret = prompt(reader, "JWT secret for student tokens (leave empty to disable the API)", "")
	cfg.Auth.OpenSignup = promptYes(reader, "Allow open admin signup?")
	cfg.Auth.SessionDurationRaw = "168h"
	cfg.Auth.TokenDurationRaw = "24h"

	if promptYes(reader, "Enable Tailscale?") {
		cfg.Tailscale.Enabled = true
		cfg.Tailscale.Hostname = prompt(reader, "Tailscale hostname", "quanta")
		cfg.Tailscale.AuthKey = prompt(reader, "Tailscale auth key (leave empty for TS_AUTHKEY)", "")
		cfg.Tailscale.Ephemeral = promptYes(reader, "Ephemeral node?")
		cfg.Tailscale.Funnel = promptYes(reader, "Enable Funnel (public HTTPS)?")
	}

	cfg.Logging.Level = prompt(reader, "Log level (debug/info/warn/error)", "info")
	cfg.Logging.Format = prompt(reader, "Log format (text/json)", "text")

	encoded, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	content := append([]byte("# quanta-server configuration\n# Generated by quanta-server init\n\n"), encoded...)

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(outputFile, content, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	dataDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Printf("Data directory: %s\n", dataDir)
	fmt.Println("\nTo start the server:")
	fmt.Printf("  quanta-server serve\n")

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	if input = strings.TrimSpace(input); input == "" {
		return defaultVal
	}
	return input
}

func promptYes(reader *bufio.Reader, question string) bool {
	answer := strings.ToLower(prompt(reader, question, "no"))
	return answer == "yes" || answer == "y"
}
