package auth

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Keys read from and written to the local env file.
const (
	KeyAppID        = "APP_ID"
	KeyAppSecret    = "APP_SECRET"
	KeyAccessToken  = "ACCESS_TOKEN"
	KeyRefreshToken = "REFRESH_TOKEN"
	KeyExpiresAt    = "TOKEN_EXPIRES_AT"
)

// Settings is what the env file provides.
type Settings struct {
	AppID      string
	AppSecret  string
	Credential Credential
}

// EnvFile is a KEY=value file holding the OAuth application and tokens.
type EnvFile struct {
	Path string
}

// Load reads the file. A missing file yields empty settings.
func (f EnvFile) Load() (Settings, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("read %s: %w", f.Path, err)
	}

	vals := parseEnv(string(data))
	s := Settings{
		AppID:     vals[KeyAppID],
		AppSecret: vals[KeyAppSecret],
		Credential: Credential{
			AccessToken:  vals[KeyAccessToken],
			RefreshToken: vals[KeyRefreshToken],
		},
	}
	if raw := vals[KeyExpiresAt]; raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return Settings{}, fmt.Errorf("%s in %s: %w", KeyExpiresAt, f.Path, err)
		}
		s.Credential.ExpiresAt = t
	}
	return s, nil
}

// WriteCredential implements CredentialWriter. Only the token lines are
// rewritten; every other line is kept byte-for-byte.
func (f EnvFile) WriteCredential(c Credential) error {
	updates := []envUpdate{{key: KeyAccessToken, value: c.AccessToken}}
	if c.RefreshToken != "" {
		updates = append(updates, envUpdate{key: KeyRefreshToken, value: c.RefreshToken})
	}
	if c.ExpiresAt.IsZero() {
		// A token without expiry must not inherit the previous one's.
		updates = append(updates, envUpdate{key: KeyExpiresAt, existingOnly: true})
	} else {
		updates = append(updates, envUpdate{key: KeyExpiresAt, value: c.ExpiresAt.UTC().Format(time.RFC3339)})
	}

	data, err := os.ReadFile(f.Path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read %s: %w", f.Path, err)
	}

	mode := fs.FileMode(0o600)
	if info, err := os.Stat(f.Path); err == nil {
		mode = info.Mode().Perm()
	}
	return writeFileAtomic(f.Path, []byte(rewriteEnv(string(data), updates)), mode)
}

type envUpdate struct {
	key   string
	value string
	// existingOnly rewrites the key where present but never appends it.
	existingOnly bool
}

func parseEnv(content string) map[string]string {
	vals := make(map[string]string)
	sc := bufio.NewScanner(strings.NewReader(content))
	for sc.Scan() {
		key, value, ok := splitEnvLine(sc.Text())
		if ok {
			vals[key] = unquote(value)
		}
	}
	return vals
}

// splitEnvLine returns the key and raw value of an assignment line.
func splitEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimPrefix(line, "export ")
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

// rewriteEnv replaces the value of each updated key in place and appends
// keys that were not present, unless marked existingOnly.
func rewriteEnv(content string, updates []envUpdate) string {
	byKey := make(map[string]string, len(updates))
	for _, u := range updates {
		byKey[u.key] = u.value
	}
	seen := make(map[string]bool, len(updates))

	var b strings.Builder
	for _, seg := range strings.SplitAfter(content, "\n") {
		if seg == "" {
			continue
		}
		body, ending := seg, ""
		switch {
		case strings.HasSuffix(body, "\r\n"):
			body, ending = body[:len(body)-2], "\r\n"
		case strings.HasSuffix(body, "\n"):
			body, ending = body[:len(body)-1], "\n"
		}

		key, _, ok := splitEnvLine(body)
		if value, update := byKey[key]; ok && update {
			b.WriteString(key + "=" + value + ending)
			seen[key] = true
			continue
		}
		b.WriteString(seg)
	}

	out := b.String()
	for _, u := range updates {
		if seen[u.key] || u.existingOnly {
			continue
		}
		if out != "" && !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		out += u.key + "=" + u.value + "\n"
	}
	return out
}

// writeFileAtomic writes to a temp file in the same directory, then renames.
func writeFileAtomic(path string, data []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
