package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"photobook/internal/books"
	"photobook/internal/database"
	"photobook/internal/logging"
)

// Default books config path, matching the server default
const defaultBooksConfig = "./config/books.json"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	// Loader progress lines belong to the server log; keep CLI output clean
	logging.SetLevel(logging.LevelWarn)

	path := configPath(os.Args[2:])

	switch command {
	case "check":
		os.Exit(runCheck(path, os.Stdout, os.Stderr))
	case "list":
		os.Exit(runList(path, os.Stdout, os.Stderr))
	default:
		// Sanitize command input using allowlist to break taint chain
		sanitized := sanitizeCommand(command)
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitized)
		printUsage()
		os.Exit(1)
	}
}

// configPath resolves the books config location: an explicit path argument
// wins, then the BOOKS_CONFIG environment variable, then the default.
func configPath(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	if env := os.Getenv("BOOKS_CONFIG"); env != "" {
		return env
	}
	return defaultBooksConfig
}

// sanitizeCommand returns a safe representation of a command string for display.
// It uses an allowlist approach, replacing any character that is not alphanumeric,
// a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage() {
	fmt.Println("Photobook Books Config Checker")
	fmt.Println("")
	fmt.Println("Usage: bookscheck <command> [path]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  check   - Validate the books config and report every problem")
	fmt.Println("  list    - Print the books that would load")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Printf("  BOOKS_CONFIG - Path to the books config (default: %s)\n", defaultBooksConfig)
}

// runCheck validates the config the same way the server does at startup and
// reports every skipped entry. Returns the process exit code.
func runCheck(path string, out, errOut io.Writer) int {
	loaded, warnings := books.Load(path)

	fmt.Fprintf(out, "Checked %s\n", path)
	fmt.Fprintf(out, "  %d books OK\n", len(loaded))

	if len(warnings) > 0 {
		fmt.Fprintf(errOut, "  %d problems:\n", len(warnings))
		for _, warning := range warnings {
			fmt.Fprintf(errOut, "    %s\n", warning)
		}
		return 1
	}
	return 0
}

// runList prints one line per book that parses. Warnings go to stderr so the
// listing stays pipeable.
func runList(path string, out, errOut io.Writer) int {
	loaded, warnings := books.Load(path)

	for _, warning := range warnings {
		fmt.Fprintf(errOut, "Warning: %s\n", warning)
	}
	for _, b := range loaded {
		fmt.Fprintln(out, formatBook(b))
	}

	if len(loaded) == 0 && len(warnings) > 0 {
		return 1
	}
	return 0
}

func formatBook(b database.Book) string {
	return fmt.Sprintf("%-20s  %-12s  month=%02d  %s..%s", b.ID, b.Child, b.Month, b.StartDate, b.EndDate)
}
