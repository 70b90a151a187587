package browser

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/sydologie/diapoai/internal/domain/ports"
)

// ErrNoOpener is returned when no command able to open a URL is installed
var ErrNoOpener = errors.New("no command found to open the preview")

// opener is a command that opens a URL, the URL being appended to args
type opener struct {
	command string
	args    []string
}

// Launcher opens the preview page with the first available platform opener.
// $BROWSER, when set, takes precedence.
type Launcher struct {
	openers  []opener
	lookPath func(string) (string, error)
	start    func(name string, args ...string) error
}

// NewLauncher creates a launcher for the current platform
func NewLauncher() *Launcher {
	openers := platformOpeners(runtime.GOOS)
	if custom := strings.Fields(os.Getenv("BROWSER")); len(custom) > 0 {
		openers = append([]opener{{command: custom[0], args: custom[1:]}}, openers...)
	}
	return &Launcher{
		openers:  openers,
		lookPath: exec.LookPath,
		start:    startDetached,
	}
}

// Open launches the opener on rawURL. Only http and https URLs are accepted.
func (l *Launcher) Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("refusing to open %q: not an http(s) URL", rawURL)
	}

	for _, o := range l.openers {
		if _, err := l.lookPath(o.command); err != nil {
			continue
		}
		args := append(append([]string{}, o.args...), u.String())
		if err := l.start(o.command, args...); err != nil {
			return fmt.Errorf("running %s: %w", o.command, err)
		}
		return nil
	}
	return ErrNoOpener
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...) // #nosec G204 - command comes from the platform table or $BROWSER
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func platformOpeners(goos string) []opener {
	switch goos {
	case "darwin":
		return []opener{{command: "open"}}
	case "windows":
		return []opener{{command: "rundll32", args: []string{"url.dll,FileProtocolHandler"}}}
	case "linux", "freebsd", "openbsd", "netbsd":
		return []opener{
			{command: "xdg-open"},
			{command: "sensible-browser"},
			{command: "firefox"},
			{command: "chromium"},
		}
	default:
		return nil
	}
}

var _ ports.PreviewOpener = (*Launcher)(nil)
