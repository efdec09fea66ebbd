package utils

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileNameFromURL returns the last path element of link, or "download".
func FileNameFromURL(link string) string {
	parsed, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "download"
	}
	name := path.Base(parsed.Path)
	if name == "." || name == "/" || name == "" {
		return "download"
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return filepath.Base(filepath.Clean(name))
}

// ResolveOutputPath fills in the output path of an entry that lacks one and
// places relative paths under dir.
func ResolveOutputPath(entry DownloadEntry, dir string) string {
	outputPath := entry.OutputPath
	if outputPath == "" {
		outputPath = FileNameFromURL(entry.URL)
	}
	if dir != "" && !filepath.IsAbs(outputPath) {
		outputPath = filepath.Join(dir, outputPath)
	}
	return outputPath
}

// RenewOutputPath returns outputPath with the lowest "-(N)" suffix before
// the extension that is neither on disk nor in taken.
func RenewOutputPath(outputPath string, taken map[string]bool) string {
	dir := filepath.Dir(outputPath)
	base := filepath.Base(outputPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	index := 1
	for {
		outputPath = filepath.Join(dir, fmt.Sprintf("%s-(%d)%s", name, index, ext))
		if _, err := os.Stat(outputPath); os.IsNotExist(err) && !taken[outputPath] {
			return outputPath
		}
		index++
	}
}

// ReservePaths resolves one distinct output path per entry, in order. A path
// that already exists or was given to an earlier entry is renewed.
func ReservePaths(entries []DownloadEntry, dir string) []string {
	taken := make(map[string]bool, len(entries))
	paths := make([]string, len(entries))
	for i, entry := range entries {
		outputPath := filepath.Clean(ResolveOutputPath(entry, dir))
		if _, err := os.Stat(outputPath); err == nil || taken[outputPath] {
			outputPath = RenewOutputPath(outputPath, taken)
		}
		taken[outputPath] = true
		paths[i] = outputPath
	}
	return paths
}

// ReadURLList reads one URL per line, skipping blank lines and # comments.
func ReadURLList(r io.Reader) ([]DownloadEntry, error) {
	var entries []DownloadEntry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, DownloadEntry{URL: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading URL list: %w", err)
	}
	return entries, nil
}

// ReadDownloadList parses a YAML batch file of {link, op} entries.
func ReadDownloadList(filePath string) ([]DownloadEntry, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading batch file: %w", err)
	}
	var entries []DownloadEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("error parsing batch file: %w", err)
	}
	valid := entries[:0]
	for _, entry := range entries {
		if strings.TrimSpace(entry.URL) == "" {
			continue
		}
		valid = append(valid, entry)
	}
	return valid, nil
}
