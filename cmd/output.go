package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/stephenmfriend/agent-commander/config"
	"github.com/stephenmfriend/agent-commander/session"
)

// useColor decides whether status lines are styled. NO_COLOR wins, then
// CLICOLOR_FORCE; otherwise only terminals get color.
func useColor(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if _, ok := os.LookupEnv("CLICOLOR_FORCE"); ok {
		return true
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func styled(w io.Writer, style lipgloss.Style, s string) string {
	if !useColor(w) {
		return s
	}
	return style.Render(s)
}

// printInvalid reports every validation error at once.
func printInvalid(w io.Writer, command string, errs []string) {
	fmt.Fprintln(w, "Error: Invalid options")
	fmt.Fprintln(w)
	for _, e := range errs {
		fmt.Fprintf(w, "  - %s\n", e)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run \"agent-commander %s --help\" for usage information.\n", command)
}

// sessionStore opens the detached-session registry named by the config,
// or the default one under the home directory.
func sessionStore(cfg config.RepoConfig) (*session.Store, error) {
	if cfg.SessionDir != "" {
		return session.NewStore(cfg.SessionDir), nil
	}
	dir, err := session.DefaultDir()
	if err != nil {
		return nil, err
	}
	return session.NewStore(dir), nil
}
