package sharedpv

import (
	"sync"
)

// non-owning handle to a requester or provider owned by the client/session layer
// the owner expires the ref when the target goes away
// resolving an expired ref is a valid outcome, never a fault

type WeakRef[T any] struct {
	mutex   sync.Mutex
	target  T
	expired bool
}

func NewWeakRef[T any](target T) *WeakRef[T] {
	return &WeakRef[T]{
		target: target,
	}
}

func (self *WeakRef[T]) Resolve() (T, bool) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	if self.expired {
		var empty T
		return empty, false
	}
	return self.target, true
}

func (self *WeakRef[T]) Expire() {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	var empty T
	self.target = empty
	self.expired = true
}

// a nil ref resolves as expired
func resolveWeak[T any](ref *WeakRef[T]) (T, bool) {
	if ref == nil {
		var empty T
		return empty, false
	}
	return ref.Resolve()
}
