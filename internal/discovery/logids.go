package discovery

import (
	"os"
	"path/filepath"
	"regexp"
)

const accessLogGlob = "*-*-*.cloudwaysapps.com.access.log"

var accessLogRe = regexp.MustCompile(`-(\d+)-(\d+)\.cloudwaysapps\.com\.access\.log$`)

// ProviderIDs recovers the hosting provider's server and application IDs from
// the newest access log in logsDir whose name carries numeric IDs. ok is false
// when no log qualifies.
func ProviderIDs(logsDir string) (serverID, appID string, ok bool) {
	matches, err := filepath.Glob(filepath.Join(logsDir, accessLogGlob))
	if err != nil || len(matches) == 0 {
		return "", "", false
	}

	var newest string
	var newestMod int64
	for _, m := range matches {
		if !accessLogRe.MatchString(filepath.Base(m)) {
			continue
		}
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if mod := info.ModTime().UnixNano(); newest == "" || mod > newestMod {
			newest, newestMod = m, mod
		}
	}
	if newest == "" {
		return "", "", false
	}

	return parseAccessLogName(filepath.Base(newest))
}

func parseAccessLogName(name string) (serverID, appID string, ok bool) {
	m := accessLogRe.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
