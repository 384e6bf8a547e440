package chromebrowser

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// ChromePathEnv names the environment variable holding a Chrome executable.
const ChromePathEnv = "CHROME_PATH"

// ResolveChromePath picks the Chrome executable to launch:
// the explicit path, then $CHROME_PATH, then well-known install locations,
// then a Chromium previously downloaded by Playwright.
// An empty result means nothing was found.
func ResolveChromePath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}
	if envPath := os.Getenv(ChromePathEnv); envPath != "" {
		return envPath
	}
	for _, candidate := range systemCandidates(runtime.GOOS) {
		if path := resolveExecutable(candidate); path != "" {
			return path
		}
	}
	return findPlaywrightChromium()
}

// systemCandidates lists Chromium before Chrome for each platform.
func systemCandidates(goos string) []string {
	switch goos {
	case "darwin":
		return []string{
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Google Chrome Canary.app/Contents/MacOS/Google Chrome Canary",
		}
	case "linux":
		return []string{
			"chromium",
			"chromium-browser",
			"google-chrome-stable",
			"google-chrome",
			"headless-shell",
		}
	case "windows":
		var out []string
		for _, env := range []string{"PROGRAMFILES", "PROGRAMFILES(X86)", "LOCALAPPDATA"} {
			root := os.Getenv(env)
			if root == "" {
				continue
			}
			out = append(out,
				root+`\Chromium\Application\chrome.exe`,
				root+`\Google\Chrome\Application\chrome.exe`,
			)
		}
		return out
	default:
		return nil
	}
}

// findPlaywrightChromium looks for the newest Chromium in Playwright's
// browser cache.
func findPlaywrightChromium() string {
	cache := playwrightCacheDir()
	if cache == "" {
		return ""
	}
	dirs, err := filepath.Glob(filepath.Join(cache, "chromium-*"))
	if err != nil || len(dirs) == 0 {
		return ""
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))

	for _, dir := range dirs {
		if strings.Contains(filepath.Base(dir), "headless") {
			continue
		}
		for _, rel := range playwrightExecutables(runtime.GOOS) {
			if path := resolveExecutable(filepath.Join(dir, rel)); path != "" {
				return path
			}
		}
	}
	return ""
}

func playwrightCacheDir() string {
	if dir := os.Getenv("PLAYWRIGHT_BROWSERS_PATH"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "ms-playwright")
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "ms-playwright")
	default:
		return filepath.Join(home, ".cache", "ms-playwright")
	}
}

func playwrightExecutables(goos string) []string {
	switch goos {
	case "darwin":
		return []string{
			"chrome-mac/Chromium.app/Contents/MacOS/Chromium",
			"chrome-mac-arm64/Google Chrome for Testing.app/Contents/MacOS/Google Chrome for Testing",
		}
	case "windows":
		return []string{`chrome-win\chrome.exe`, `chrome-win64\chrome.exe`}
	default:
		return []string{"chrome-linux/chrome", "chrome-linux64/chrome"}
	}
}

// resolveExecutable returns nameOrPath when it is an existing file path,
// or its PATH lookup result when it is a bare command name.
func resolveExecutable(nameOrPath string) string {
	if nameOrPath == "" {
		return ""
	}
	if filepath.IsAbs(nameOrPath) || strings.ContainsAny(nameOrPath, `/\`) {
		if info, err := os.Stat(nameOrPath); err == nil && !info.IsDir() {
			return nameOrPath
		}
		return ""
	}
	if path, err := exec.LookPath(nameOrPath); err == nil {
		return path
	}
	return ""
}
