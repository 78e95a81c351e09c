package gitlab

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ParseRepoURL splits a project URL such as
// "https://gitlab.com/group/sub/repo.git" into the instance base URL
// ("https://gitlab.com") and the project path ("group/sub/repo").
// Anything after "/-/" (merge request pages, blobs) is ignored.
func ParseRepoURL(raw string) (base, project string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("invalid repository URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", fmt.Errorf("invalid repository URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("invalid repository URL %q: missing host", raw)
	}

	path := u.Path
	if i := strings.Index(path, "/-/"); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, "/")
	path = strings.TrimSuffix(path, ".git")

	if strings.Count(path, "/") < 1 {
		return "", "", fmt.Errorf("invalid repository URL %q: expected https://host/group/project", raw)
	}
	return u.Scheme + "://" + u.Host, path, nil
}

// MergeRequestIIDFromURL extracts the IID from a merge request page URL
// (".../-/merge_requests/42").
func MergeRequestIIDFromURL(raw string) (int, bool) {
	_, rest, ok := strings.Cut(raw, "/-/merge_requests/")
	if !ok {
		return 0, false
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	iid, err := strconv.Atoi(rest)
	if err != nil || iid <= 0 {
		return 0, false
	}
	return iid, true
}

// ProjectKey identifies a project across instances, e.g.
// "gitlab.com/group/repo". It scopes the approval cache.
func ProjectKey(base, project string) string {
	host := base
	if u, err := url.Parse(base); err == nil && u.Host != "" {
		host = u.Host
	}
	return host + "/" + project
}
