package services

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/resync-dev/resync/internal/core/domain"
	"github.com/resync-dev/resync/internal/logger"
)

// Placeholder tokens. The brackets keep them outside every content
// pattern's value character class, so re-running the sanitizer over
// already-sanitized content produces no further changes.
const (
	placeholderAPIKey     = "[REDACTED_API_KEY]"
	placeholderPassword   = "[REDACTED_PASSWORD]"
	placeholderBearer     = "[REDACTED_TOKEN]"
	placeholderPrivateKey = "[REDACTED_PRIVATE_KEY]"
)

// contentRule rewrites one category of credential-shaped content.
type contentRule struct {
	category domain.FindingCategory
	pattern  *regexp.Regexp
	replace  string
}

// defaultContentRules match API-key-shaped tokens, password
// assignments, bearer tokens and inline private key material.
var defaultContentRules = []contentRule{
	{
		category: domain.FindingAPIKey,
		pattern:  regexp.MustCompile(`\b(?:sk|pk|rk)-[A-Za-z0-9]{8,}\b`),
		replace:  placeholderAPIKey,
	},
	{
		category: domain.FindingAPIKey,
		pattern:  regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{16,}\b`),
		replace:  placeholderAPIKey,
	},
	{
		category: domain.FindingAPIKey,
		pattern:  regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
		replace:  placeholderAPIKey,
	},
	{
		category: domain.FindingAPIKey,
		pattern:  regexp.MustCompile(`(?i)\b(api[_-]?key|api[_-]?secret|access[_-]?token)(["']?\s*[:=]\s*)["']?[^\s"'\[\]]{8,}["']?`),
		replace:  `${1}${2}"` + placeholderAPIKey + `"`,
	},
	{
		category: domain.FindingPassword,
		pattern:  regexp.MustCompile(`(?i)\b(password|passwd|pwd)(["']?\s*[:=]\s*)["']?[^\s"'\[\]]{4,}["']?`),
		replace:  `${1}${2}"` + placeholderPassword + `"`,
	},
	{
		category: domain.FindingBearer,
		pattern:  regexp.MustCompile(`(?i)\b(bearer\s+)[A-Za-z0-9\-._~+/]{8,}=*`),
		replace:  `${1}` + placeholderBearer,
	},
	{
		category: domain.FindingPrivateKey,
		pattern:  regexp.MustCompile(`(?s)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?-----END [A-Z ]*PRIVATE KEY-----`),
		replace:  placeholderPrivateKey,
	},
}

// defaultSensitiveNames are file names that never leave the machine.
// Matched against the base name, case-insensitively.
var defaultSensitiveNames = []string{
	"*.pem", "*.key", "*.p12", "*.pfx", "*.jks",
	".env", ".env.*", "*.env",
	"id_rsa*", "id_ed25519*", "id_ecdsa*",
	"*credential*", "*secret*", ".netrc", ".npmrc", ".pypirc",
}

// Sanitizer scans changed files for credential-like patterns before
// any network transmission. Sensitive file names are blocked entirely;
// content matches are rewritten with stable placeholders into a copy
// that proceeds to the committer in place of the original. A file the
// sanitizer cannot read is blocked, never passed through unsanitized.
type Sanitizer struct {
	root         string
	namePatterns []string
	rules        []contentRule

	// readFile is replaceable for tests.
	readFile func(string) ([]byte, error)
}

// NewSanitizer creates a sanitizer reading paths relative to root,
// with the built-in rules plus any extra sensitive-name patterns from
// configuration.
func NewSanitizer(root string, extraNames []string) *Sanitizer {
	patterns := append([]string(nil), defaultSensitiveNames...)
	patterns = append(patterns, extraNames...)
	return &Sanitizer{
		root:         root,
		namePatterns: patterns,
		rules:        defaultContentRules,
		readFile:     os.ReadFile,
	}
}

// Sanitize scans the given files and returns the rewritten copies,
// blocked paths and findings. It never returns the original content
// of a file that had any finding.
func (s *Sanitizer) Sanitize(paths []string) *domain.SanitizationResult {
	result := &domain.SanitizationResult{}

	for _, path := range paths {
		if s.nameBlocked(path) {
			logger.Warn("sanitizer: blocking %s (sensitive file name)", path)
			result.Blocked = append(result.Blocked, path)
			continue
		}

		content, err := s.readFile(filepath.Join(s.root, path))
		if err != nil {
			// Unreadable means unverifiable. Block, never pass through.
			logger.Warn("sanitizer: blocking %s (unreadable: %v)", path, err)
			result.Blocked = append(result.Blocked, path)
			continue
		}

		rewritten, findings := s.rewrite(path, content)
		result.Files = append(result.Files, domain.SanitizedFile{Path: path, Content: rewritten})
		result.Findings = append(result.Findings, findings...)
	}

	return result
}

// SanitizeContent applies the content rules to a single byte slice.
// Exposed for callers that hold content in memory.
func (s *Sanitizer) SanitizeContent(path string, content []byte) ([]byte, []domain.Finding) {
	return s.rewrite(path, content)
}

// nameBlocked reports whether the file's base name matches a
// sensitive-name pattern.
func (s *Sanitizer) nameBlocked(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	for _, pattern := range s.namePatterns {
		if ok, err := filepath.Match(strings.ToLower(pattern), base); err == nil && ok {
			return true
		}
	}
	return false
}

// rewrite applies every content rule, collecting per-category counts.
func (s *Sanitizer) rewrite(path string, content []byte) ([]byte, []domain.Finding) {
	counts := make(map[domain.FindingCategory]int)

	for _, rule := range s.rules {
		matches := rule.pattern.FindAll(content, -1)
		if len(matches) == 0 {
			continue
		}
		rewritten := rule.pattern.ReplaceAll(content, []byte(rule.replace))
		// A rule whose replacement equals the match (already a
		// placeholder) counts as no finding.
		if string(rewritten) != string(content) {
			counts[rule.category] += len(matches)
			content = rewritten
		}
	}

	var findings []domain.Finding
	for category, count := range counts {
		findings = append(findings, domain.Finding{Path: path, Category: category, Count: count})
	}
	return content, findings
}
