// Package coalesce implements the watcher's event coalescer: it rewrites a
// burst of raw filesystem events into the minimal set of Added/Updated/
// Deleted changes per resource, applies include/exclude glob filtering, and
// prunes descendant deletes once a parent directory delete is known.
// Include/exclude matching uses github.com/bmatcuk/doublestar/v4.
package coalesce

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jcn363/MintMind/internal/rpcproto"
)

// Coalescer filters and merges a stream of raw events into the changes
// reported to the parent process.
type Coalescer struct {
	includes []string
	excludes []string
}

// New builds a Coalescer from doublestar include/exclude glob patterns.
// An empty includes list means "include everything not excluded".
func New(includes, excludes []string) *Coalescer {
	return &Coalescer{includes: includes, excludes: excludes}
}

// Coalesce rewrites events into the minimal set of changes per resource,
// in first-seen order, with descendant deletes of an already-deleted
// parent directory pruned from the result.
func (c *Coalescer) Coalesce(events []rpcproto.FileChange) []rpcproto.FileChange {
	order := make([]string, 0, len(events))
	byResource := make(map[string]rpcproto.FileChange, len(events))

	for _, event := range events {
		if !c.shouldInclude(event.Resource) {
			continue
		}

		existing, ok := byResource[event.Resource]
		if !ok {
			order = append(order, event.Resource)
			byResource[event.Resource] = event
			continue
		}

		merged, keep := merge(existing, event)
		if !keep {
			delete(byResource, event.Resource)
			continue
		}
		byResource[event.Resource] = merged
	}

	deletedPaths := make([]string, 0)
	for _, resource := range order {
		if event, ok := byResource[resource]; ok && event.ChangeType == rpcproto.ChangeDeleted {
			deletedPaths = append(deletedPaths, resource)
		}
	}

	final := make([]rpcproto.FileChange, 0, len(byResource))
	for _, resource := range order {
		event, ok := byResource[resource]
		if !ok {
			continue
		}
		if event.ChangeType == rpcproto.ChangeDeleted && isDescendantOfAny(resource, deletedPaths) {
			continue
		}
		final = append(final, event)
	}
	return final
}

// shouldInclude applies the exclude-then-include glob rule: excluded
// resources are always dropped; when includes are non-empty, a resource
// must match at least one of them to survive.
func (c *Coalescer) shouldInclude(resource string) bool {
	for _, pattern := range c.excludes {
		if matched, _ := doublestar.Match(pattern, resource); matched {
			return false
		}
	}
	if len(c.includes) == 0 {
		return true
	}
	for _, pattern := range c.includes {
		if matched, _ := doublestar.Match(pattern, resource); matched {
			return true
		}
	}
	return false
}

// merge applies the coalescing rewrite table for two events on the same
// resource, reporting false when the pair cancels out (an Added followed
// by a Deleted, as if the resource never existed for the duration of this
// batch).
func merge(existing, incoming rpcproto.FileChange) (rpcproto.FileChange, bool) {
	result := rpcproto.FileChange{
		Resource:      existing.Resource,
		CorrelationID: incoming.CorrelationID,
		MTime:         incoming.MTime,
	}

	switch {
	case existing.ChangeType == rpcproto.ChangeAdded && incoming.ChangeType == rpcproto.ChangeDeleted:
		return rpcproto.FileChange{}, false
	case existing.ChangeType == rpcproto.ChangeDeleted && incoming.ChangeType == rpcproto.ChangeAdded:
		result.ChangeType = rpcproto.ChangeUpdated
	case existing.ChangeType == rpcproto.ChangeAdded && incoming.ChangeType == rpcproto.ChangeUpdated:
		result.ChangeType = rpcproto.ChangeAdded
	case existing.ChangeType == rpcproto.ChangeUpdated && incoming.ChangeType == rpcproto.ChangeDeleted:
		result.ChangeType = rpcproto.ChangeDeleted
	case existing.ChangeType == rpcproto.ChangeUpdated && incoming.ChangeType == rpcproto.ChangeAdded:
		result.ChangeType = rpcproto.ChangeUpdated
	case existing.ChangeType == rpcproto.ChangeDeleted && incoming.ChangeType == rpcproto.ChangeUpdated:
		result.ChangeType = rpcproto.ChangeUpdated
	default:
		// Same change type on both sides: keep the kind, adopt the more
		// recent correlation id.
		result.ChangeType = existing.ChangeType
	}
	return result, true
}

// isDescendantOfAny reports whether resource is a proper descendant of any
// path in deletedPaths other than itself.
func isDescendantOfAny(resource string, deletedPaths []string) bool {
	for _, deletedPath := range deletedPaths {
		if deletedPath == resource {
			continue
		}
		if isProperDescendant(resource, deletedPath) {
			return true
		}
	}
	return false
}

// isProperDescendant reports whether resource lies strictly beneath
// parent, treating both as "/"-separated resource paths (the watcher
// always normalizes paths to this form before they reach the coalescer).
func isProperDescendant(resource, parent string) bool {
	prefix := parent
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return strings.HasPrefix(resource, prefix) && len(resource) > len(prefix)
}
