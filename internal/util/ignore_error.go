package util

// IgnoreError calls fn and discards the error it returns, for example `defer util.IgnoreError(listener.Close)`
func IgnoreError(fn func() error) {
	_ = fn()
}
