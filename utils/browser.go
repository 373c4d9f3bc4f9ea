package utils

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// ErrNoOpener is returned when no browser launcher is installed
var ErrNoOpener = errors.New("no browser launcher found")

var linuxOpeners = []string{"xdg-open", "sensible-browser", "x-www-browser", "gnome-open", "kde-open"}

func isWSL() bool {
	if runtime.GOOS != "linux" {
		return false
	}

	// Check /proc/version for WSL
	if data, err := os.ReadFile("/proc/version"); err == nil {
		return strings.Contains(strings.ToLower(string(data)), "wsl")
	}

	return false
}

// OpenCommand returns the command line that opens url in the default
// browser of goos
func OpenCommand(goos string, wsl bool, url string, lookPath func(string) (string, error)) ([]string, error) {
	switch goos {
	case "linux":
		if wsl {
			// cmd.exe treats & as a command separator; console links carry two
			return []string{"cmd.exe", "/c", "start", `""`, strings.ReplaceAll(url, "&", "^&")}, nil
		}
		for _, name := range linuxOpeners {
			if _, err := lookPath(name); err == nil {
				return []string{name, url}, nil
			}
		}
		return nil, ErrNoOpener
	case "darwin":
		return []string{"open", url}, nil
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler", url}, nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// OpenBrowser opens url in the system browser. Console links opened this
// way only work when the browser is signed in to the portal.
func OpenBrowser(url string) error {
	args, err := OpenCommand(runtime.GOOS, isWSL(), url, exec.LookPath)
	if err != nil {
		return err
	}
	return exec.Command(args[0], args[1:]...).Start()
}
