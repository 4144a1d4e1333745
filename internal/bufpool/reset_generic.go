//go:build !amd64

package bufpool

func reset(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
