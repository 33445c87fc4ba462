package discovery

import (
	"bufio"
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"

	"github.com/vulnverified/sitevault/internal/engine"
)

const (
	primaryConfigFile = "wp-config.php"
	envFile           = ".env"
	defaultDBHost     = "localhost"
)

// defineRe matches define('DB_X', 'value') regardless of whether the line is
// commented out. Single- and double-quoted values are separate groups so a
// value may contain the other quote character.
var defineRe = regexp.MustCompile(`define\(\s*['"](DB_NAME|DB_USER|DB_PASSWORD|DB_HOST)['"]\s*,\s*(?:'([^']*)'|"([^"]*)")\s*\)`)

var scanExtensions = map[string]bool{
	".php": true,
	".inc": true,
}

var envKeys = map[string]string{
	"DB_DATABASE": "DB_NAME",
	"DB_USERNAME": "DB_USER",
	"DB_PASSWORD": "DB_PASSWORD",
	"DB_HOST":     "DB_HOST",
}

// credBuilder fills each field with the first non-empty value it is offered
// and remembers the first source that contributed name, user or password.
type credBuilder struct {
	creds engine.CredentialSet
}

func (b *credBuilder) offer(key, value string, src engine.Source, file string) {
	if value == "" {
		return
	}
	var field *string
	switch key {
	case "DB_NAME":
		field = &b.creds.Name
	case "DB_USER":
		field = &b.creds.User
	case "DB_PASSWORD":
		field = &b.creds.Password
	case "DB_HOST":
		field = &b.creds.Host
	default:
		return
	}
	if *field != "" {
		return
	}
	*field = value

	if key != "DB_HOST" && b.creds.Source == "" {
		b.creds.Source = src
		b.creds.SourceFile = file
	}
}

func (b *credBuilder) complete() bool {
	return b.creds.Complete()
}

// InferCredentials determines database credentials for the application whose
// web root is webRoot. Sources are tried in order: the primary config file,
// a scan of every .php/.inc file under the web root, then the .env file.
func InferCredentials(webRoot string) engine.CredentialSet {
	b := &credBuilder{}

	if data, err := os.ReadFile(filepath.Join(webRoot, primaryConfigFile)); err == nil {
		matchDefines(b, data, engine.SourcePrimary, primaryConfigFile)
	}

	if !b.complete() {
		scanSourceFiles(b, webRoot)
	}

	if !b.complete() {
		readEnvFile(b, filepath.Join(webRoot, envFile))
	}

	if b.creds.Host == "" {
		b.creds.Host = defaultDBHost
	}
	if b.creds.Source == "" {
		b.creds.Source = engine.SourceNone
	}
	return b.creds
}

func matchDefines(b *credBuilder, data []byte, src engine.Source, file string) {
	for _, m := range defineRe.FindAllSubmatch(data, -1) {
		value := m[2]
		if value == nil {
			value = m[3]
		}
		b.offer(string(m[1]), string(value), src, file)
	}
}

// scanSourceFiles walks webRoot in lexical order. Fields are filled
// independently, so name and user may come from different files.
func scanSourceFiles(b *credBuilder, webRoot string) {
	_ = filepath.WalkDir(webRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped.
			if d != nil && d.IsDir() && path != webRoot {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !scanExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil || !bytes.Contains(data, []byte("DB_")) {
			return nil
		}
		rel, _ := filepath.Rel(webRoot, path)
		matchDefines(b, data, engine.SourceScan, rel)

		if b.complete() && b.creds.Host != "" {
			return filepath.SkipAll
		}
		return nil
	})
}

// readEnvFile reads KEY=value lines with dotenv quoting rules. The first
// occurrence of each key wins.
func readEnvFile(b *credBuilder, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	seen := make(map[string]bool)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		kv, err := godotenv.Unmarshal(line)
		if err != nil {
			continue
		}
		for k, v := range kv {
			field, ok := envKeys[k]
			if !ok || seen[k] {
				continue
			}
			seen[k] = true
			b.offer(field, v, engine.SourceEnv, envFile)
		}
	}
}
