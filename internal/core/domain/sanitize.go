package domain

// FindingCategory classifies a credential-like match in file content.
type FindingCategory string

// Finding categories. Each maps to a stable placeholder token.
const (
	FindingAPIKey     FindingCategory = "api_key"
	FindingPassword   FindingCategory = "password"
	FindingBearer     FindingCategory = "bearer_token"
	FindingPrivateKey FindingCategory = "private_key"
)

// Finding records one credential-like match that was rewritten.
type Finding struct {
	// Path is the file the match was found in.
	Path string

	// Category is the kind of credential matched.
	Category FindingCategory

	// Count is how many spans of this category were rewritten in Path.
	Count int
}

// SanitizedFile is a rewritten copy of a changed file. The copy, never
// the original, is what proceeds to the sync committer.
type SanitizedFile struct {
	// Path is the original file path.
	Path string

	// Content is the sanitized file body.
	Content []byte
}

// SanitizationResult is the outcome of scanning a set of changed files.
type SanitizationResult struct {
	// Files holds the rewritten (or clean, unchanged) file copies
	// that may proceed to sync.
	Files []SanitizedFile

	// Blocked holds paths excluded from the sync entirely: sensitive
	// file names, or files the sanitizer could not read.
	Blocked []string

	// Findings summarises what was rewritten, per file and category.
	Findings []Finding
}
