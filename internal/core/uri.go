package core

import (
	"net/url"
	"strings"
)

// FileScheme is the prefix of every local-file import entry.
const FileScheme = "file://"

// IsFileURI reports whether s names a local file.
func IsFileURI(s string) bool {
	return len(s) >= len(FileScheme) && strings.EqualFold(s[:len(FileScheme)], FileScheme)
}

// PathToURI converts a filesystem path into a file:/// URI with forward slashes.
// Unix paths keep a single leading slash ("/a/b" -> "file:///a/b") and Windows
// paths keep their drive letter ("C:\a" -> "file:///C:/a"). A literal "%"
// is escaped so URIToPath returns path unchanged.
func PathToURI(path string) string {
	p := strings.ReplaceAll(path, `\`, "/")
	p = strings.ReplaceAll(p, "%", "%25")
	p = strings.TrimLeft(p, "/")
	return FileScheme + "/" + p
}

// URIToPath resolves a file URI back to a filesystem path.
// Legacy entries written as "file:////home/x" and percent-encoded entries are
// tolerated. The second return value is false when uri is not a file URI.
func URIToPath(uri string) (string, bool) {
	return uriToPath(uri, true)
}

// literalPath is URIToPath without percent-decoding, for entries written by
// tools that never escaped their paths.
func literalPath(uri string) (string, bool) {
	return uriToPath(uri, false)
}

func uriToPath(uri string, unescape bool) (string, bool) {
	if !IsFileURI(uri) {
		return "", false
	}

	rest := uri[len(FileScheme):]
	if unescape && strings.Contains(rest, "%") {
		if unescaped, err := url.PathUnescape(rest); err == nil {
			rest = unescaped
		}
	}

	// Drop an authority of "localhost", which some writers emit.
	if after, ok := strings.CutPrefix(rest, "localhost/"); ok {
		rest = "/" + after
	}

	rest = "/" + strings.TrimLeft(rest, "/")

	// "/C:/dir" is a Windows drive path.
	if len(rest) >= 3 && rest[2] == ':' && isLetter(rest[1]) {
		return rest[1:], true
	}

	return rest, true
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
