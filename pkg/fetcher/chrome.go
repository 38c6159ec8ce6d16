package fetcher

import (
	"os"
	"os/exec"
	"sync"

	"github.com/jmylchreest/tabula/internal/logger"
)

// ChromePathEnv overrides Chrome discovery.
const ChromePathEnv = "TABULA_CHROME_PATH"

// Chrome/Chromium binary names and install locations, in lookup order.
var chromeCandidates = []string{
	"google-chrome-stable",
	"google-chrome",
	"chromium",
	"chromium-browser",
	"chrome",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/chromium",
	"/snap/bin/chromium",
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
}

var chromePath = sync.OnceValue(func() string {
	if p := os.Getenv(ChromePathEnv); p != "" {
		return p
	}
	for _, name := range chromeCandidates {
		// LookPath handles both bare names and absolute paths.
		if path, err := exec.LookPath(name); err == nil {
			logger.Debug("found Chrome binary", "path", path)
			return path
		}
	}
	logger.Warn("no Chrome binary found, dynamic fetch and agent mode may not work")
	return ""
})

// FindChromePath returns the Chrome/Chromium binary to launch, or "" to let
// chromedp use its own lookup. The result is computed once per process.
func FindChromePath() string {
	return chromePath()
}
