// ABOUTME: Admin console for the quanta content platform
// ABOUTME: Hosts the session manager with a file-cached identity per machine

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/CodeGallantX/quanta/internal/auth"
	"github.com/CodeGallantX/quanta/internal/config"
	"github.com/CodeGallantX/quanta/internal/store"
)

const banner = `
   __ _ _   _  __ _ _ __ | |_ __ _        __ _  __| |_ __ ___ (_)_ __
  / _' | | | |/ _' | '_ \| __/ _' |_____ / _' |/ _' | '_ ' _ \| | '_ \
 | (_| | |_| | (_| | | | | || (_| |_____| (_| | (_| | | | | | | | | | |
  \__, |\__,_|\__,_|_| |_|\__\__,_|      \__,_|\__,_|_| |_| |_|_|_| |_|
     |_|
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Keep the console quiet unless something goes wrong
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	cmd := os.Args[1]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		return
	}

	console, err := newConsole(ctx)
	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
	defer console.close()

	switch cmd {
	case "login":
		err = console.cmdLogin(ctx)
	case "logout":
		err = console.cmdLogout()
	case "whoami":
		err = console.cmdWhoami()
	case "students":
		err = console.cmdStudents(ctx)
	case "stats":
		err = console.cmdStats(ctx)
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

func printUsage() {
	fmt.Print(banner)
	fmt.Println()
	fmt.Println("Usage: quanta-admin <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  login      Sign in with email and password")
	fmt.Println("  logout     Sign out and clear the cached session")
	fmt.Println("  whoami     Show the current admin identity")
	fmt.Println("  students   List enrolled students")
	fmt.Println("  stats      Show platform analytics")
	fmt.Println("  help       Show this help")
}

// getConfigPath returns the path to the server config file.
func getConfigPath() string {
	if envPath := os.Getenv("QUANTA_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "server.yaml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "quanta", "server.yaml")
}

// sessionCachePath returns where the console persists its signed-in identity.
func sessionCachePath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "session.json"
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "quanta", "session.json")
}

// console holds the process-local session manager and store handles.
type console struct {
	store   *store.SQLiteStore
	manager *auth.SessionManager
}

// newConsole opens the store and restores any cached session.
func newConsole(ctx context.Context) (*console, error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	cache := auth.NewFileSessionCache(sessionCachePath())
	manager := auth.NewSessionManager(s, cache, slog.Default())

	if err := manager.Initialize(ctx); err != nil {
		manager.Close()
		_ = s.Close()
		return nil, fmt.Errorf("restoring session: %w", err)
	}

	return &console{store: s, manager: manager}, nil
}

func (c *console) close() {
	c.manager.Close()
	_ = c.store.Close()
}

// requireAuth returns the signed-in identity or an error telling the user
// to log in first.
func (c *console) requireAuth() (*auth.AdminIdentity, error) {
	result := auth.Evaluate(c.manager.CurrentState())
	switch result.Decision {
	case auth.DecisionContent:
		return result.Identity, nil
	case auth.DecisionRedirectToSignIn:
		return nil, errors.New("not signed in: run 'quanta-admin login' first")
	default:
		return nil, errors.New("session is still initializing, try again")
	}
}

func (c *console) cmdLogin(ctx context.Context) error {
	if result := auth.Evaluate(c.manager.CurrentState()); result.Decision == auth.DecisionContent {
		fmt.Printf("Already signed in as %s. Run 'quanta-admin logout' to switch accounts.\n", result.Identity.Email)
		return nil
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Email: ")
	email, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading email: %w", err)
	}
	email = strings.TrimSpace(email)

	fmt.Print("Password: ")
	password, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	password = strings.TrimRight(password, "\r\n")

	if err := c.manager.SignIn(ctx, email, password); err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return errors.New("invalid email or password")
		case errors.Is(err, auth.ErrLookupFailed):
			return fmt.Errorf("could not reach the account store, try again: %v", err)
		default:
			return err
		}
	}

	state := c.manager.CurrentState()
	green := color.New(color.FgGreen)
	green.Printf("✓ Signed in as %s", state.Identity.Email)
	if state.Identity.FullName != "" {
		fmt.Printf(" (%s)", state.Identity.FullName)
	}
	fmt.Println()
	return nil
}

func (c *console) cmdLogout() error {
	c.manager.SignOut()
	fmt.Println("Signed out.")
	return nil
}

func (c *console) cmdWhoami() error {
	identity, err := c.requireAuth()
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	cyan.Println("Current Identity")
	cyan.Println("----------------")
	fmt.Printf("ID:      %s\n", identity.ID)
	fmt.Printf("Email:   %s\n", identity.Email)
	fmt.Printf("Name:    %s\n", identity.FullName)
	fmt.Printf("Role:    %s\n", identity.Role)
	if !identity.CreatedAt.IsZero() {
		fmt.Printf("Created: %s\n", identity.CreatedAt.Format("Jan 02, 2006"))
	}
	return nil
}

func (c *console) cmdStudents(ctx context.Context) error {
	if _, err := c.requireAuth(); err != nil {
		return err
	}

	students, err := c.store.ListStudents(ctx)
	if err != nil {
		return fmt.Errorf("listing students: %w", err)
	}

	if len(students) == 0 {
		fmt.Println("No students enrolled.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEMAIL\tCLASS\tJOINED")
	for _, s := range students {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.FullName, s.Email, s.Class, s.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func (c *console) cmdStats(ctx context.Context) error {
	if _, err := c.requireAuth(); err != nil {
		return err
	}

	summary, err := c.store.GetAnalyticsSummary(ctx)
	if err != nil {
		return fmt.Errorf("loading analytics: %w", err)
	}

	cyan := color.New(color.FgCyan)
	cyan.Println("Platform Stats")
	cyan.Println("--------------")
	fmt.Printf("Students:   %d\n", summary.StudentCount)
	fmt.Printf("Subjects:   %d\n", summary.SubjectCount)
	fmt.Printf("Lessons:    %d\n", summary.LessonCount)
	fmt.Printf("Questions:  %d\n", summary.QuestionCount)
	fmt.Printf("Attempts:   %d\n", summary.AttemptCount)
	if summary.AttemptCount > 0 {
		fmt.Printf("Avg score:  %.1f%%\n", summary.AverageScorePct)
	}
	return nil
}
