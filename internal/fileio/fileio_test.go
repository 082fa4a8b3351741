package fileio

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/jcn363/MintMind/internal/rpcproto"
)

func TestWriteThenReadFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.txt")
	svc := New(nil)

	if err := svc.WriteFile(rpcproto.WriteFileRequest{Path: path, Content: "hello"}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	resp, err := svc.ReadFile(rpcproto.ReadFileRequest{Path: path})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if resp.Content != "hello" {
		t.Fatalf("content = %q, want %q", resp.Content, "hello")
	}
}

func TestWriteFileBase64Decodes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "binary.bin")
	svc := New(nil)

	raw := []byte{0x00, 0xff, 0x10, 'h', 'i'}
	if err := svc.WriteFile(rpcproto.WriteFileRequest{
		Path:     path,
		Content:  base64.StdEncoding.EncodeToString(raw),
		Encoding: "base64",
	}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if string(got) != string(raw) {
		t.Fatalf("content = %v, want %v", got, raw)
	}
}

func TestReadFileBase64RoundTripsWithWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "binary.bin")
	svc := New(nil)

	raw := []byte{0x00, 0xff, 0x10, 'h', 'i'}
	encoded := base64.StdEncoding.EncodeToString(raw)
	if err := svc.WriteFile(rpcproto.WriteFileRequest{Path: path, Content: encoded, Encoding: "base64"}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	resp, err := svc.ReadFile(rpcproto.ReadFileRequest{Path: path, Encoding: "base64"})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if resp.Content != encoded {
		t.Fatalf("content = %q, want %q", resp.Content, encoded)
	}

	decoded, decodeErr := base64.StdEncoding.DecodeString(resp.Content)
	if decodeErr != nil {
		t.Fatal(decodeErr)
	}
	if string(decoded) != string(raw) {
		t.Fatalf("round-tripped bytes = %v, want %v", decoded, raw)
	}
}

func TestWriteFilePlainFollowsSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires elevated privileges on windows")
	}
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	if err := os.WriteFile(target, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}

	svc := New(nil)
	if err := svc.WriteFile(rpcproto.WriteFileRequest{Path: link, Content: "updated"}); err != nil {
		t.Fatalf("WriteFile through symlink: %v", err)
	}

	got, readErr := os.ReadFile(target)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if string(got) != "updated" {
		t.Fatalf("target content = %q, want %q (plain write should follow the link)", got, "updated")
	}
}

func TestWriteFileAtomicRejectsSymlinkTarget(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires elevated privileges on windows")
	}
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	if err := os.WriteFile(target, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}

	svc := New(nil)
	err := svc.WriteFile(rpcproto.WriteFileRequest{
		Path:    link,
		Content: "updated",
		Atomic:  &rpcproto.AtomicOptions{},
	})
	if err == nil {
		t.Fatal("expected atomic write through a symlink to be rejected")
	}
}

func TestAtomicWriteLeavesNoTemporarySibling(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "atomic.txt")
	svc := New(nil)

	if err := svc.WriteFile(rpcproto.WriteFileRequest{
		Path:    path,
		Content: "content",
		Atomic:  &rpcproto.AtomicOptions{},
	}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if len(entries) != 1 || entries[0].Name() != "atomic.txt" {
		t.Fatalf("directory contains unexpected entries: %v", entries)
	}
}

func TestAtomicWriteConcurrentNeverObservesPartialContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "race.txt")
	svc := New(nil)

	if err := svc.WriteFile(rpcproto.WriteFileRequest{Path: path, Content: "initial"}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			content := "payload-from-writer"
			svc.WriteFile(rpcproto.WriteFileRequest{
				Path:    path,
				Content: content,
				Atomic:  &rpcproto.AtomicOptions{},
			})
		}(i)
	}
	wg.Wait()

	resp, err := svc.ReadFile(rpcproto.ReadFileRequest{Path: path})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if resp.Content != "payload-from-writer" {
		t.Fatalf("observed torn or unexpected content: %q", resp.Content)
	}
}

func TestDeleteRecursiveAtomicRemovesTree(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "tree")
	if err := os.MkdirAll(filepath.Join(target, "child"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(target, "child", "file.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := New(nil)
	if err := svc.Delete(rpcproto.DeleteRequest{Path: target, Recursive: true, Atomic: true}); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, statErr := os.Stat(target); !os.IsNotExist(statErr) {
		t.Fatalf("expected target to be gone, stat err = %v", statErr)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no staging siblings left behind, got %v", entries)
	}
}

func TestHandleInvalidAfterClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "handle.txt")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := New(nil)
	openResp, openErr := svc.OpenFile(rpcproto.OpenFileRequest{Path: path})
	if openErr != nil {
		t.Fatalf("OpenFile: %v", openErr)
	}

	if err := svc.CloseFile(rpcproto.CloseFileRequest{Handle: openResp.Handle}); err != nil {
		t.Fatalf("CloseFile: %v", err)
	}

	if _, err := svc.ReadFileHandle(rpcproto.ReadFileHandleRequest{Handle: openResp.Handle, Length: 4}); err == nil {
		t.Fatal("expected read against closed handle to fail")
	}
}

func TestReadFileStreamDeliversAllChunksInOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stream.txt")
	content := make([]byte, 300)
	for i := range content {
		content[i] = byte('a' + i%26)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	svc := New(nil)
	bufferSize := uint32(100)
	var collected []byte
	var sawDone bool
	err := svc.ReadFileStream(rpcproto.ReadFileStreamRequest{
		Path:    path,
		Options: &rpcproto.ReadFileStreamOptions{BufferSize: &bufferSize},
	}, func(chunk rpcproto.ReadFileStreamResponse) error {
		collected = append(collected, chunk.Chunk...)
		if chunk.Done {
			sawDone = true
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ReadFileStream: %v", err)
	}
	if !sawDone {
		t.Fatal("expected a final chunk with Done set")
	}
	if string(collected) != string(content) {
		t.Fatal("streamed content did not match source file")
	}
}

func TestCopyRefusesOverwriteUnlessRequested(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	if err := os.WriteFile(src, []byte("source"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := New(nil)
	if err := svc.Copy(rpcproto.CopyRequest{Source: src, Destination: dst}); err == nil {
		t.Fatal("expected copy without overwrite to fail")
	}
	if err := svc.Copy(rpcproto.CopyRequest{Source: src, Destination: dst, Overwrite: true}); err != nil {
		t.Fatalf("Copy with overwrite: %v", err)
	}

	got, readErr := os.ReadFile(dst)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if string(got) != "source" {
		t.Fatalf("destination content = %q, want %q", got, "source")
	}
}
