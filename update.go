//go:build windows
// +build windows

package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type GitHubRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// checkForUpdates polls the latest release once at startup and raises a
// balloon when a newer version exists. Notify-only; no self-install.
func checkForUpdates() {
	defer safeDefer("checkForUpdates")

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Get("https://api.github.com/repos/JonathanSwalens/WindowsThings/releases/latest")
	if err != nil {
		if logger != nil {
			logger.Printf("[UPDATE] check failed: %v", err)
		}
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return
	}

	var release GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	if latest == "" || !isNewerVersion(latest, currentVersion) {
		return
	}
	if logger != nil {
		logger.Printf("[UPDATE] v%s available (running v%s): %s", latest, currentVersion, release.HTMLURL)
	}
	sendNotification("SDR Brightness", "Version "+latest+" is available.")
}

func isNewerVersion(latest, current string) bool {
	lp := strings.Split(latest, ".")
	cp := strings.Split(current, ".")
	for i := 0; i < len(lp) || i < len(cp); i++ {
		var l, c int
		if i < len(lp) {
			l, _ = strconv.Atoi(lp[i])
		}
		if i < len(cp) {
			c, _ = strconv.Atoi(cp[i])
		}
		if l != c {
			return l > c
		}
	}
	return false
}
