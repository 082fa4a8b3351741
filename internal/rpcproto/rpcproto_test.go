package rpcproto

import (
	"encoding/json"
	"testing"
)

func TestFileChangeTypeMarshalsAsNumericString(t *testing.T) {
	cases := map[FileChangeType]string{
		ChangeUpdated: `"0"`,
		ChangeAdded:   `"1"`,
		ChangeDeleted: `"2"`,
	}
	for changeType, want := range cases {
		got, err := json.Marshal(changeType)
		if err != nil {
			t.Fatalf("Marshal(%v): %v", changeType, err)
		}
		if string(got) != want {
			t.Errorf("Marshal(%v) = %s, want %s", changeType, got, want)
		}
	}
}

func TestFileChangeTypeUnmarshalAcceptsStringOrNumber(t *testing.T) {
	var t1 FileChangeType
	if err := json.Unmarshal([]byte(`"2"`), &t1); err != nil {
		t.Fatal(err)
	}
	if t1 != ChangeDeleted {
		t.Fatalf("got %v, want ChangeDeleted", t1)
	}

	var t2 FileChangeType
	if err := json.Unmarshal([]byte(`1`), &t2); err != nil {
		t.Fatal(err)
	}
	if t2 != ChangeAdded {
		t.Fatalf("got %v, want ChangeAdded", t2)
	}
}

func TestEnvelopeIsNotificationAndIsReply(t *testing.T) {
	id := json.RawMessage(`1`)

	request := Envelope{ID: &id, Method: "stat"}
	if request.IsNotification() {
		t.Error("request with ID should not be a notification")
	}
	if request.IsReply() {
		t.Error("request should not be classified as a reply")
	}

	notification := Envelope{Method: "onDidLogMessage"}
	if !notification.IsNotification() {
		t.Error("envelope without ID should be a notification")
	}

	reply := Envelope{ID: &id, Result: json.RawMessage(`{}`)}
	if !reply.IsReply() {
		t.Error("envelope with Result should be a reply")
	}
	if reply.IsNotification() {
		t.Error("reply carries an ID, should not be a notification")
	}
}

func TestFileIOErrorSatisfiesErrorInterface(t *testing.T) {
	var err error = &FileIOError{Message: "no such file or directory", Code: "ENOENT"}
	if err.Error() != "ENOENT: no such file or directory" {
		t.Fatalf("unexpected Error() text: %q", err.Error())
	}
}
