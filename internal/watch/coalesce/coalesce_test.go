package coalesce

import (
	"testing"

	"github.com/jcn363/MintMind/internal/rpcproto"
)

func change(resource string, changeType rpcproto.FileChangeType) rpcproto.FileChange {
	return rpcproto.FileChange{Resource: resource, ChangeType: changeType}
}

func TestCoalesceAddedThenDeletedCancelsOut(t *testing.T) {
	c := New(nil, nil)
	result := c.Coalesce([]rpcproto.FileChange{
		change("/a/b.txt", rpcproto.ChangeAdded),
		change("/a/b.txt", rpcproto.ChangeDeleted),
	})
	if len(result) != 0 {
		t.Fatalf("expected no events, got %v", result)
	}
}

func TestCoalesceDeletedThenAddedBecomesUpdated(t *testing.T) {
	c := New(nil, nil)
	result := c.Coalesce([]rpcproto.FileChange{
		change("/a/b.txt", rpcproto.ChangeDeleted),
		change("/a/b.txt", rpcproto.ChangeAdded),
	})
	if len(result) != 1 || result[0].ChangeType != rpcproto.ChangeUpdated {
		t.Fatalf("expected single Updated event, got %v", result)
	}
}

func TestCoalesceAtMostOneEntryPerResource(t *testing.T) {
	c := New(nil, nil)
	result := c.Coalesce([]rpcproto.FileChange{
		change("/a/b.txt", rpcproto.ChangeUpdated),
		change("/a/b.txt", rpcproto.ChangeUpdated),
		change("/a/b.txt", rpcproto.ChangeUpdated),
	})
	if len(result) != 1 {
		t.Fatalf("expected exactly one coalesced event, got %d: %v", len(result), result)
	}
}

func TestCoalescePrunesDescendantDeletesOfDeletedParent(t *testing.T) {
	c := New(nil, nil)
	result := c.Coalesce([]rpcproto.FileChange{
		change("/a", rpcproto.ChangeDeleted),
		change("/a/b.txt", rpcproto.ChangeDeleted),
		change("/a/nested/c.txt", rpcproto.ChangeDeleted),
		change("/other/d.txt", rpcproto.ChangeDeleted),
	})

	resources := make(map[string]bool)
	for _, event := range result {
		resources[event.Resource] = true
	}
	if !resources["/a"] {
		t.Error("expected parent delete /a to survive")
	}
	if resources["/a/b.txt"] || resources["/a/nested/c.txt"] {
		t.Error("expected descendant deletes of /a to be pruned")
	}
	if !resources["/other/d.txt"] {
		t.Error("expected unrelated delete to survive")
	}
}

func TestCoalesceExcludeGlobDropsMatchingResource(t *testing.T) {
	c := New(nil, []string{"**/*.tmp"})
	result := c.Coalesce([]rpcproto.FileChange{
		change("/a/b.tmp", rpcproto.ChangeAdded),
		change("/a/b.go", rpcproto.ChangeAdded),
	})
	if len(result) != 1 || result[0].Resource != "/a/b.go" {
		t.Fatalf("expected only /a/b.go to survive, got %v", result)
	}
}

func TestCoalesceIncludeGlobRequiresMatch(t *testing.T) {
	c := New([]string{"**/*.go"}, nil)
	result := c.Coalesce([]rpcproto.FileChange{
		change("/a/b.go", rpcproto.ChangeAdded),
		change("/a/b.txt", rpcproto.ChangeAdded),
	})
	if len(result) != 1 || result[0].Resource != "/a/b.go" {
		t.Fatalf("expected only /a/b.go to survive, got %v", result)
	}
}
