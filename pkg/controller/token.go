package controller

import "sync/atomic"

// token is a one-way cancellation flag shared by every continuation started
// before Unmount.
type token struct {
	done atomic.Bool
}

func (t *token) cancel() {
	t.done.Store(true)
}

func (t *token) cancelled() bool {
	return t.done.Load()
}
