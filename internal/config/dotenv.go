package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadDotenv sets variables from a .env file that are not already defined.
// A missing file is ignored.
func LoadDotenv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	vars, err := parseDotenv(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for _, kv := range vars {
		if _, exists := os.LookupEnv(kv[0]); !exists {
			os.Setenv(kv[0], kv[1])
		}
	}
	return nil
}

// parseDotenv returns KEY=value pairs in file order. Blank lines, comments
// and lines without "=" are skipped; an "export " prefix is accepted.
func parseDotenv(r io.Reader) ([][2]string, error) {
	var vars [][2]string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		vars = append(vars, [2]string{key, unquote(strings.TrimSpace(value))})
	}
	return vars, scanner.Err()
}

// unquote strips matching surrounding quotes (single or double).
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
