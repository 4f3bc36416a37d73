// Package mmap maps snapshot blobs read-only into memory.
//
//	m, err := mmap.Open(path)
//	if err != nil { ... }
//	defer m.Close()
//	data := m.Bytes()
//
// Unix uses mmap(2) with madvise(2). Windows uses
// CreateFileMapping/MapViewOfFile.
//
// Mapping is safe for concurrent reads. Close is idempotent; callers must not
// touch slices returned by Bytes after Close.
package mmap
