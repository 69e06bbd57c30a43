package internal

import (
	"bytes"
	"sync"
)

// bufferPool recycles *bytes.Buffer to keep rendering of large query trees
// off the GC's back. Borrow with GetBuffer, return with PutBuffer.
//
//	buf := internal.GetBuffer()
//	defer internal.PutBuffer(buf)
var bufferPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// maxPooled keeps one oversized render from pinning memory in the pool.
const maxPooled = 64 << 10

// GetBuffer fetches an empty *bytes.Buffer.
func GetBuffer() *bytes.Buffer {
	b := bufferPool.Get().(*bytes.Buffer)
	b.Reset()
	return b
}

// PutBuffer returns a buffer to the pool. The caller MUST NOT touch it (or
// a slice obtained from Bytes) afterwards.
func PutBuffer(b *bytes.Buffer) {
	if b.Cap() > maxPooled {
		return
	}
	bufferPool.Put(b)
}
