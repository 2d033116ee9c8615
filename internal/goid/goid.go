// package goid reports the id of the calling goroutine.
package goid

import "runtime"

// Get returns the id of the calling goroutine, or 0 if it could not be
// determined.
func Get() int64 {
	// only the first line is needed: "goroutine 123 [running]:"
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parse(buf[:n])
}

func parse(buf []byte) int64 {
	const prefix = "goroutine "
	if len(buf) < len(prefix) || string(buf[:len(prefix)]) != prefix {
		return 0
	}

	var id int64
	for _, c := range buf[len(prefix):] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + int64(c-'0')
	}
	return id
}
