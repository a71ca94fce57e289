// Package mempool provides a size-classed byte buffer pool for the detection
// post-processor's hot path, where per-page binarized bitmaps would otherwise
// be reallocated for every call.
package mempool

import "sync"

// sizeClass rounds n up to the next multiple of 1024 to limit pool churn.
func sizeClass(n int) int {
	const step = 1024
	if n <= step {
		return step
	}
	return (n + step - 1) / step * step
}

// classes maps a size class (int) to the *sync.Pool holding its buffers.
var classes sync.Map

// GetByte retrieves a zeroed []byte of length n from the pool. The caller
// must return it via PutByte when done.
func GetByte(n int) []byte {
	cls := sizeClass(n)
	buf, ok := class(cls).Get().([]byte)
	if !ok || cap(buf) < cls {
		buf = make([]byte, cls)
	}
	buf = buf[:n]
	clear(buf)
	return buf
}

// PutByte returns a buffer to the pool. Nil is a no-op.
func PutByte(buf []byte) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	class(cls).Put(buf[:cap(buf)]) //nolint:staticcheck
}

func class(cls int) *sync.Pool {
	if sp, ok := classes.Load(cls); ok {
		return sp.(*sync.Pool)
	}
	sp, _ := classes.LoadOrStore(cls, &sync.Pool{
		New: func() any { return make([]byte, cls) },
	})
	return sp.(*sync.Pool)
}
