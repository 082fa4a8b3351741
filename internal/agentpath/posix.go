package agentpath

import "strings"

// NormalizePOSIX normalizes a POSIX path: it collapses "." and ".."
// segments, preserves a leading "/" (absoluteness) and a trailing separator,
// and maps the empty path to ".".
func NormalizePOSIX(path string) string {
	if path == "" {
		return "."
	}

	absolute := path[0] == '/'
	trailingSlash := len(path) > 1 && path[len(path)-1] == '/'

	segments := collapseSegments(path, '/', absolute)
	result := strings.Join(segments, "/")

	switch {
	case absolute && result == "":
		result = "/"
	case absolute:
		result = "/" + result
	case result == "":
		result = "."
	}

	if trailingSlash && !strings.HasSuffix(result, "/") {
		result += "/"
	}

	return result
}

// JoinPOSIX joins path components with "/" and normalizes the result,
// exactly as path.posix.join does.
func JoinPOSIX(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	if len(nonEmpty) == 0 {
		return "."
	}
	return NormalizePOSIX(strings.Join(nonEmpty, "/"))
}

// IsAbsolutePOSIX reports whether path has a leading "/".
func IsAbsolutePOSIX(path string) bool {
	return len(path) > 0 && path[0] == '/'
}

// ResolvePOSIX resolves a sequence of paths right-to-left, prepending the
// process's current working directory if the result is still relative, and
// normalizes the outcome. It matches path.posix.resolve semantics.
func ResolvePOSIX(parts ...string) string {
	resolved := ""
	absoluteFound := false

	for i := len(parts) - 1; i >= 0 && !absoluteFound; i-- {
		part := parts[i]
		if part == "" {
			continue
		}
		if resolved == "" {
			resolved = part
		} else {
			resolved = part + "/" + resolved
		}
		absoluteFound = IsAbsolutePOSIX(part)
	}

	if !absoluteFound {
		cwd := currentDirectory()
		if resolved == "" {
			resolved = cwd
		} else {
			resolved = cwd + "/" + resolved
		}
	}

	normalized := NormalizePOSIX(resolved)
	if normalized == "." {
		return "/"
	}
	if !strings.HasPrefix(normalized, "/") {
		return "/" + normalized
	}
	return normalized
}

// RelativePOSIX computes a relative path from "from" to "to", both resolved
// against the current working directory first.
func RelativePOSIX(from, to string) string {
	fromAbs := ResolvePOSIX(from)
	toAbs := ResolvePOSIX(to)

	if fromAbs == toAbs {
		return ""
	}

	fromParts := splitNonEmpty(fromAbs, '/')
	toParts := splitNonEmpty(toAbs, '/')

	common := 0
	for common < len(fromParts) && common < len(toParts) && fromParts[common] == toParts[common] {
		common++
	}

	var segments []string
	for i := common; i < len(fromParts); i++ {
		segments = append(segments, "..")
	}
	segments = append(segments, toParts[common:]...)

	if len(segments) == 0 {
		return "."
	}
	return strings.Join(segments, "/")
}

// ParsePOSIX decomposes a POSIX path into root, directory, base, extension,
// and name components, matching path.posix.parse.
func ParsePOSIX(path string) PathComponents {
	root := ""
	if strings.HasPrefix(path, "/") {
		root = "/"
	}

	trimmed := path
	if len(trimmed) > 1 {
		trimmed = strings.TrimRight(trimmed, "/")
		if trimmed == "" {
			trimmed = "/"
		}
	}

	base := trimmed
	dir := ""
	if idx := strings.LastIndexByte(trimmed, '/'); idx >= 0 {
		base = trimmed[idx+1:]
		if idx == 0 {
			dir = "/"
		} else {
			dir = trimmed[:idx]
		}
	}

	ext, name := splitExtension(base)

	return PathComponents{Root: root, Dir: dir, Base: base, Ext: ext, Name: name}
}

// splitExtension splits a base name into its extension and stem, treating a
// leading dot (as in ".gitignore") as part of the name rather than an
// extension marker.
func splitExtension(base string) (ext, name string) {
	name = base
	if idx := strings.LastIndexByte(base, '.'); idx > 0 {
		ext = base[idx:]
		name = base[:idx]
	}
	return ext, name
}

// splitNonEmpty splits s on sep, discarding empty segments.
func splitNonEmpty(s string, sep byte) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == sep {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
