//go:build amd64

package bufpool

//go:inline
func reset(buf []byte) {
	clear(buf)
}
