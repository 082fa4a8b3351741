package agentpath

import "strings"

// splitWindowsRoot separates a Windows path into its root (a drive
// specification such as "C:" or "C:\", a UNC root such as "\\server\share",
// or a bare "\" for a rootless-but-rooted path) and the remainder of the
// path following the root.
func splitWindowsRoot(path string) (root, rest string) {
	if path == "" {
		return "", ""
	}

	// Normalize forward slashes to backslashes for the purpose of root
	// detection; the caller is responsible for re-collapsing segments with
	// the canonical backslash separator.
	scan := strings.ReplaceAll(path, "/", `\`)

	// UNC root: \\server\share
	if len(scan) >= 2 && scan[0] == '\\' && scan[1] == '\\' {
		// Find the server name boundary.
		rem := scan[2:]
		serverEnd := strings.IndexByte(rem, '\\')
		if serverEnd == -1 {
			return scan, ""
		}
		afterServer := rem[serverEnd+1:]
		shareEnd := strings.IndexByte(afterServer, '\\')
		if shareEnd == -1 {
			return scan, ""
		}
		rootLen := 2 + serverEnd + 1 + shareEnd + 1
		return scan[:rootLen], scan[rootLen:]
	}

	// Drive root: C: or C:\
	if len(scan) >= 2 && isDriveLetter(scan[0]) && scan[1] == ':' {
		if len(scan) >= 3 && scan[2] == '\\' {
			return scan[:3], scan[3:]
		}
		return scan[:2], scan[2:]
	}

	// Rootless-but-rooted: \foo\bar
	if scan[0] == '\\' {
		return `\`, scan[1:]
	}

	return "", scan
}

func isDriveLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// NormalizeWindows normalizes a Windows path: it recognizes drive-letter and
// UNC roots, collapses "." and ".." segments in the tail using "\" as the
// separator, and preserves a trailing separator. Isolated roots ("\",
// "X:", "X:\") are returned unchanged.
func NormalizeWindows(path string) string {
	if path == "" {
		return "."
	}

	root, rest := splitWindowsRoot(path)

	if rest == "" {
		if root == "" {
			return "."
		}
		return root
	}

	trailingSlash := strings.HasSuffix(rest, `\`)
	rooted := root != ""

	segments := collapseSegments(rest, '\\', rooted)
	result := strings.Join(segments, `\`)

	if result == "" {
		if root == "" {
			return "."
		}
		if root == `\` || strings.HasSuffix(root, `\`) {
			return root
		}
		return root
	}

	var out string
	switch {
	case root == "":
		out = result
	case strings.HasSuffix(root, `\`):
		out = root + result
	default:
		out = root + `\` + result
	}

	if trailingSlash && !strings.HasSuffix(out, `\`) {
		out += `\`
	}

	return out
}

// JoinWindows joins path components with "\" and normalizes the result.
func JoinWindows(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	if len(nonEmpty) == 0 {
		return "."
	}
	return NormalizeWindows(strings.Join(nonEmpty, `\`))
}

// IsAbsoluteWindows reports whether path has a drive root, UNC root, or
// leading separator.
func IsAbsoluteWindows(path string) bool {
	root, _ := splitWindowsRoot(path)
	if root == "" {
		return false
	}
	// A bare drive specification without a trailing separator (e.g. "C:foo")
	// is drive-relative, not absolute.
	if len(root) == 2 && isDriveLetter(root[0]) && root[1] == ':' {
		return false
	}
	return true
}

// ResolveWindows resolves a sequence of paths right-to-left against the
// current working directory, for Windows semantics.
func ResolveWindows(parts ...string) string {
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
			resolved = part + `\` + resolved
		}
		absoluteFound = IsAbsoluteWindows(part)
	}

	if !absoluteFound {
		cwd := currentDirectory()
		if resolved == "" {
			resolved = cwd
		} else {
			resolved = cwd + `\` + resolved
		}
	}

	return NormalizeWindows(resolved)
}

// RelativeWindows computes a relative path from "from" to "to" using
// case-insensitive, backslash-normalized comparison.
func RelativeWindows(from, to string) string {
	fromAbs := ResolveWindows(from)
	toAbs := ResolveWindows(to)

	if strings.EqualFold(fromAbs, toAbs) {
		return ""
	}

	fromRoot, fromRest := splitWindowsRoot(fromAbs)
	toRoot, toRest := splitWindowsRoot(toAbs)
	if !strings.EqualFold(fromRoot, toRoot) {
		// No common root (e.g. different drives): return the absolute
		// destination, matching Node's behavior for cross-root relative().
		return toAbs
	}

	fromParts := splitNonEmptyFold(fromRest, '\\')
	toParts := splitNonEmptyFold(toRest, '\\')

	common := 0
	for common < len(fromParts) && common < len(toParts) && strings.EqualFold(fromParts[common], toParts[common]) {
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
	return strings.Join(segments, `\`)
}

func splitNonEmptyFold(s string, sep byte) []string {
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

// ParseWindows decomposes a Windows path into root, directory, base,
// extension, and name components.
func ParseWindows(path string) PathComponents {
	root, rest := splitWindowsRoot(path)

	trimmedRest := rest
	if len(trimmedRest) > 0 {
		trimmedRest = strings.TrimRight(trimmedRest, `\`)
	}

	var base, dir string
	if trimmedRest == "" {
		base = ""
		dir = root
	} else if idx := strings.LastIndexByte(trimmedRest, '\\'); idx >= 0 {
		base = trimmedRest[idx+1:]
		dir = root + trimmedRest[:idx]
	} else {
		base = trimmedRest
		dir = root
	}

	ext, name := splitExtension(base)

	return PathComponents{Root: root, Dir: dir, Base: base, Ext: ext, Name: name}
}
