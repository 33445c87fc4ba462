package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// URLFileName is the URL list written into the run directory.
const URLFileName = "urls.txt"

// WriteURLs prints one URL per line.
func WriteURLs(w io.Writer, urls []string) {
	for _, u := range urls {
		fmt.Fprintln(w, u)
	}
}

// WriteURLFile writes urls to dir/urls.txt and returns the file path.
func WriteURLFile(dir string, urls []string) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	path := filepath.Join(dir, URLFileName)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return "", fmt.Errorf("creating URL list: %w", err)
	}

	bw := bufio.NewWriter(f)
	WriteURLs(bw, urls)
	if err := bw.Flush(); err != nil {
		f.Close()
		return "", fmt.Errorf("writing URL list: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("writing URL list: %w", err)
	}
	return path, nil
}
