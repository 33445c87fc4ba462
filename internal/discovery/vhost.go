package discovery

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/vulnverified/sitevault/pkg/serrors"
)

// ErrNoServerName means the virtual-host file did not yield a domain.
var ErrNoServerName = serrors.With(serrors.ErrNotFound, "no server_name found")

var serverNameRe = regexp.MustCompile(`\bserver_name\b`)

// FirstServerNameLine returns the first line of r containing the server_name
// token. Later lines are never consulted.
func FirstServerNameLine(r io.Reader) (string, bool) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := sc.Text(); serverNameRe.MatchString(line) {
			return line, true
		}
	}
	return "", false
}

// LastServerName extracts the authoritative domain from a server_name line:
// the last name listed, lowercased. Aliases come first and the canonical
// domain last.
func LastServerName(line string) (string, error) {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	line = serverNameRe.ReplaceAllString(line, " ")
	line = strings.NewReplacer(",", " ", ";", " ").Replace(line)

	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return "", ErrNoServerName
	}
	return strings.ToLower(tokens[len(tokens)-1]), nil
}

// ServerName reads the virtual-host file at path and returns its domain.
// Every failure wraps ErrNoServerName.
func ServerName(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoServerName, err)
	}
	defer f.Close()

	line, ok := FirstServerNameLine(f)
	if !ok {
		return "", ErrNoServerName
	}
	return LastServerName(line)
}
