package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nordgaard/driftroom/internal/chat"
	"github.com/nordgaard/driftroom/internal/tui"
	"github.com/nordgaard/driftroom/pkg/graph"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// dataDirPath returns the state directory, DRIFTROOM_DATA_DIR or
// ~/.driftroom.
func dataDirPath() (string, error) {
	if dir := os.Getenv("DRIFTROOM_DATA_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".driftroom"), nil
}

// relayURLs returns the relay peers from DRIFTROOM_RELAY, comma-separated.
// Empty means local-only: the graph still works, it just doesn't sync.
func relayURLs() []string {
	raw := os.Getenv("DRIFTROOM_RELAY")
	if raw == "" {
		return nil
	}
	var urls []string
	for _, u := range strings.Split(raw, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

func openGraph(dataDir string) *graph.Graph {
	return graph.New(
		graph.WithDataDir(filepath.Join(dataDir, "graph")),
		graph.WithRelays(relayURLs()...),
	)
}

func run() error {
	dataDir, err := dataDirPath()
	if err != nil {
		return err
	}

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "version", "-v":
			fmt.Println("driftroom " + version)
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		case "login":
			return runLogin(dataDir)
		case "signup":
			return runSignup(dataDir)
		case "logout":
			return runLogout(dataDir)
		default:
			return fmt.Errorf("unknown command %q (try: driftroom help)", os.Args[1])
		}
	}

	// A recalled session skips the auth view; a missing one is not an
	// error, the TUI opens on the login form.
	recalled, err := graph.RecallSession(dataDir)
	if err != nil && !graph.IsAuthError(err) {
		return err
	}

	g := openGraph(dataDir)
	defer g.Close() //nolint:errcheck

	app := tui.NewApp(g, dataDir, recalled)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

// prompt reads one line from stdin with a label.
func prompt(r *bufio.Reader, label string) (string, error) {
	fmt.Print(label + ": ")
	line, err := r.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func runLogin(dataDir string) error {
	r := bufio.NewReader(os.Stdin)
	alias, err := prompt(r, "alias")
	if err != nil {
		return err
	}
	passphrase, err := prompt(r, "passphrase")
	if err != nil {
		return err
	}

	g := openGraph(dataDir)
	defer g.Close() //nolint:errcheck

	id, err := chat.Login(context.Background(), g, alias, passphrase)
	if err != nil {
		return err
	}
	if err := graph.SaveSession(dataDir, id); err != nil {
		return err
	}
	fmt.Printf("Logged in as %s\n", id.Alias)
	return nil
}

func runSignup(dataDir string) error {
	r := bufio.NewReader(os.Stdin)
	alias, err := prompt(r, "alias")
	if err != nil {
		return err
	}
	passphrase, err := prompt(r, "passphrase")
	if err != nil {
		return err
	}
	displayname, err := prompt(r, "display name")
	if err != nil {
		return err
	}

	g := openGraph(dataDir)
	defer g.Close() //nolint:errcheck

	id, err := chat.Signup(context.Background(), g, alias, passphrase, displayname)
	if err != nil {
		return err
	}
	if err := graph.SaveSession(dataDir, id); err != nil {
		return err
	}
	fmt.Printf("Account created. Logged in as %s\n", id.Alias)
	return nil
}

func runLogout(dataDir string) error {
	if err := graph.EndSession(dataDir); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

func printHelp() {
	fmt.Println(`driftroom ` + version + `

Usage:
  driftroom           open the chat TUI
  driftroom signup    create an account
  driftroom login     authenticate and save a local session
  driftroom logout    clear the local session
  driftroom version   show version

Environment:
  DRIFTROOM_RELAY     comma-separated relay peer URLs (default: local only)
  DRIFTROOM_DATA_DIR  state directory (default: ~/.driftroom)`)
}
