package chromebrowser

import (
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
)

var (
	installOnce sync.Once
	installPath string
	installErr  error
)

// InstallChromium downloads Playwright's Chromium build (once per process)
// and returns its executable path.
func InstallChromium() (string, error) {
	installOnce.Do(func() {
		installPath, installErr = installChromium()
	})
	return installPath, installErr
}

func installChromium() (string, error) {
	if err := playwright.Install(&playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
	}); err != nil {
		return "", fmt.Errorf("download chromium: %w", err)
	}

	pw, err := playwright.Run(&playwright.RunOptions{SkipInstallBrowsers: true})
	if err != nil {
		return "", fmt.Errorf("start playwright: %w", err)
	}
	defer pw.Stop()

	path := pw.Chromium.ExecutablePath()
	if resolveExecutable(path) == "" {
		return "", fmt.Errorf("chromium executable missing at %s", path)
	}
	return path, nil
}
