package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/resync-dev/resync/internal/core/domain"
)

// markdownLinkPattern matches markdown-style references: [label](target).
var markdownLinkPattern = regexp.MustCompile(`\[[^\]]*\]\(([^)\s]+)\)`)

// documentExtensions are the relative references link discovery follows.
var documentExtensions = []string{".md", ".markdown", ".json", ".yaml", ".yml", ".toml", ".txt"}

// Discovery scans resource bodies for references to further remote
// resources. It is a pure function over text: no network, no state,
// which keeps it unit-testable in isolation.
type Discovery struct {
	// hostPattern matches absolute links into the configured
	// repository and captures the in-repo path.
	hostPattern *regexp.Regexp
}

// NewDiscovery creates link discovery for the configured remote.
// Absolute links into other repositories are ignored.
func NewDiscovery(remote domain.RemoteConfig) *Discovery {
	// e.g. https://github.com/owner/repo/blob/<ref>/docs/guide.md
	pattern := fmt.Sprintf(
		`https?://github\.com/%s/%s/(?:blob|raw)/[^/\s]+/([^\s)"'<>]+)`,
		regexp.QuoteMeta(remote.Owner), regexp.QuoteMeta(remote.Repo),
	)
	return &Discovery{hostPattern: regexp.MustCompile(pattern)}
}

// Discover returns the URIs referenced by body, de-duplicated and in
// order of appearance. Relative references are returned as-is;
// absolute links to the configured repository are reduced to their
// in-repo path so both resolve identically against the base.
func (d *Discovery) Discover(body []byte) []string {
	text := string(body)
	seen := make(map[string]struct{})
	var links []string

	add := func(uri string) {
		uri = strings.TrimPrefix(uri, "./")
		if uri == "" {
			return
		}
		if _, ok := seen[uri]; ok {
			return
		}
		seen[uri] = struct{}{}
		links = append(links, uri)
	}

	for _, match := range markdownLinkPattern.FindAllStringSubmatch(text, -1) {
		target := match[1]
		if repoPath, ok := d.repoPath(target); ok {
			add(repoPath)
			continue
		}
		if isRelativeDocument(target) {
			add(strings.TrimPrefix(target, "/"))
		}
	}

	// Bare absolute links outside markdown syntax.
	for _, match := range d.hostPattern.FindAllStringSubmatch(text, -1) {
		add(match[1])
	}

	return links
}

// repoPath reduces an absolute link into the configured repository to
// its in-repo path.
func (d *Discovery) repoPath(target string) (string, bool) {
	match := d.hostPattern.FindStringSubmatch(target)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// isRelativeDocument reports whether target is a relative reference to
// a document resource rather than an external URL or anchor.
func isRelativeDocument(target string) bool {
	if strings.Contains(target, "://") || strings.HasPrefix(target, "#") ||
		strings.HasPrefix(target, "mailto:") {
		return false
	}
	lower := strings.ToLower(target)
	for _, ext := range documentExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
