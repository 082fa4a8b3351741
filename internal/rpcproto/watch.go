package rpcproto

import (
	"encoding/json"
	"fmt"
)

// FileChangeType discriminates the three watch event kinds. It marshals to
// the numeric string the parent process expects ("0"=Updated, "1"=Added,
// "2"=Deleted) rather than a bare JSON number, matching the wire format
// documented for the watcher service.
type FileChangeType int

const (
	ChangeUpdated FileChangeType = iota
	ChangeAdded
	ChangeDeleted
)

// FileChangeFilter is a bitmask of FileChangeType values, used by
// WatchRequest.Filter to restrict which change kinds a subscription emits.
type FileChangeFilter uint8

const (
	FilterUpdated FileChangeFilter = 1 << iota
	FilterAdded
	FilterDeleted
)

// Matches reports whether t is included in the filter bitmask. A nil
// filter (the zero value FileChangeFilter(0) supplied by a caller that
// never set WatchRequest.Filter) matches everything.
func (f FileChangeFilter) Matches(t FileChangeType) bool {
	if f == 0 {
		return true
	}
	switch t {
	case ChangeUpdated:
		return f&FilterUpdated != 0
	case ChangeAdded:
		return f&FilterAdded != 0
	case ChangeDeleted:
		return f&FilterDeleted != 0
	default:
		return true
	}
}

func (t FileChangeType) String() string {
	switch t {
	case ChangeAdded:
		return "added"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the change type as its numeric value wrapped in a
// JSON string, e.g. "1" for ChangeAdded.
func (t FileChangeType) MarshalJSON() ([]byte, error) {
	return json.Marshal(fmt.Sprintf("%d", int(t)))
}

// UnmarshalJSON accepts either a numeric string ("0") or a bare number (0).
func (t *FileChangeType) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		var n int
		if _, err := fmt.Sscanf(asString, "%d", &n); err != nil {
			return err
		}
		*t = FileChangeType(n)
		return nil
	}
	var asNumber int
	if err := json.Unmarshal(data, &asNumber); err != nil {
		return err
	}
	*t = FileChangeType(asNumber)
	return nil
}

// WatchRequest registers a watch on Path, keyed by its normalized path.
// Includes/Excludes are doublestar glob patterns applied by the coalescer
// before events are ever queued. CorrelationID, when present, is stamped
// onto every change emitted for this subscription, including the
// synthetic Added event a resurrection produces. Filter, when non-zero,
// restricts which change kinds are emitted. PollingIntervalMs is accepted
// on the wire but not read by the watcher engine: every watch uses the
// native fsnotify backend, and no poll-based watching mode exists.
type WatchRequest struct {
	Path              string           `json:"path"`
	Recursive         bool             `json:"recursive,omitempty"`
	Includes          []string         `json:"includes,omitempty"`
	Excludes          []string         `json:"excludes,omitempty"`
	CorrelationID     *uint32          `json:"correlation_id,omitempty"`
	Filter            FileChangeFilter `json:"filter,omitempty"`
	PollingIntervalMs *uint32          `json:"polling_interval,omitempty"`
}

// FileChange describes a single coalesced filesystem event for one
// resource. CorrelationID, when present, ties the change back to the
// subscription that produced it. MTime, when present, is the resource's
// modification time in Unix milliseconds.
type FileChange struct {
	Resource      string         `json:"resource"`
	ChangeType    FileChangeType `json:"type"`
	CorrelationID *uint32        `json:"cId,omitempty"`
	MTime         *int64         `json:"mtime,omitempty"`
}

// WatchResponse is a single batch of coalesced, throttled changes delivered
// for the subscription keyed by ID, which is the subscription's normalized
// path (not an opaque handle).
type WatchResponse struct {
	ID      string       `json:"id"`
	Changes []FileChange `json:"changes"`
}

// LogMessageNotification is the "onDidLogMessage" notification the watcher
// service uses to surface structured log output to the parent process
// alongside (not instead of) its own local logging.
type LogMessageNotification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// ConsoleNotification is the raw "__$console" sidechannel escape: a
// message the parent forwards verbatim to its own developer console
// without interpreting it as a JSON-RPC reply.
type ConsoleNotification struct {
	Type      string        `json:"__$console"`
	Severity  string        `json:"severity,omitempty"`
	Arguments []interface{} `json:"arguments,omitempty"`
}
