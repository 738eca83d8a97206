// Package version reports build information for agent-commander.
// The values are set at build time using ldflags.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Build-time variables set via ldflags
var (
	// Version is the semantic version (e.g., "1.2.3")
	Version = "dev"

	// Commit is the git commit SHA
	Commit = "none"

	// Date is the build date
	Date = "unknown"
)

// ReleaseURL is queried by CheckForUpdate.
var ReleaseURL = "https://api.github.com/repos/stephenmfriend/agent-commander/releases/latest"

// Info returns a formatted version string
func Info() string {
	return fmt.Sprintf("agent-commander %s (commit: %s, built: %s, go: %s, %s/%s)",
		Version, Commit, Date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Short returns just the version number
func Short() string {
	return Version
}

type githubRelease struct {
	TagName string `json:"tag_name"`
}

// CheckForUpdate asks GitHub for the latest release. It returns the latest
// version and whether it is newer than this build. Development builds
// never report an update.
func CheckForUpdate(ctx context.Context) (latest string, available bool, err error) {
	if Version == "dev" {
		return "", false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ReleaseURL, nil)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("checking for updates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("checking for updates: unexpected status %s", resp.Status)
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", false, fmt.Errorf("decoding release: %w", err)
	}

	latest = strings.TrimPrefix(release.TagName, "v")
	current := strings.TrimPrefix(Version, "v")
	return latest, compareVersions(latest, current) > 0, nil
}

// compareVersions compares dotted version strings numerically.
// Returns 1 if a > b, -1 if a < b, 0 if equal. Pre-release suffixes
// such as "-rc1" are ignored.
func compareVersions(a, b string) int {
	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")

	for i := 0; i < len(aParts) || i < len(bParts); i++ {
		aNum, bNum := versionPart(aParts, i), versionPart(bParts, i)
		if aNum > bNum {
			return 1
		} else if aNum < bNum {
			return -1
		}
	}
	return 0
}

func versionPart(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	p := parts[i]
	if j := strings.IndexAny(p, "-+"); j >= 0 {
		p = p[:j]
	}
	n, _ := strconv.Atoi(p)
	return n
}
