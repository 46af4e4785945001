package sharedpv

import (
	"sync"

	"github.com/golang/glog"

	"github.com/pvtools/sharedpv/pvdata"
)

// Channel is one client's attachment to a SharedPV.
// The channel keeps the record alive; the requester and provider are
// owned by the client/session layer and held weakly.
type Channel struct {
	pv          *SharedPV
	channelId   Id
	channelName string
	provider    *WeakRef[Provider]
	requester   *WeakRef[ChannelRequester]

	mutex  sync.Mutex
	closed bool
}

// Attach creates a channel bound to this record. The channel is appended
// to the record's channel set; if the set was empty, the handler's
// OnFirstConnect fires exactly once, after the record lock is released.
func (self *SharedPV) Attach(provider *WeakRef[Provider], channelName string, requester *WeakRef[ChannelRequester]) *Channel {
	channel := &Channel{
		pv:          self,
		channelId:   NewId(),
		channelName: channelName,
		provider:    provider,
		requester:   requester,
	}

	if 5 < self.Debug() {
		glog.Infof("[spv]open %s %s c(%s)\n", channel.requesterName(), channelName, channel.channelId)
	}

	self.attach(channel)
	return channel
}

func (self *Channel) requesterName() string {
	if requester, ok := resolveWeak(self.requester); ok {
		return requester.RequesterName()
	}
	return "<defunct>"
}

func (self *Channel) ChannelName() string {
	return self.channelName
}

func (self *Channel) ChannelId() Id {
	return self.channelId
}

func (self *Channel) SharedPV() *SharedPV {
	return self.pv
}

func (self *Channel) Provider() (Provider, bool) {
	return resolveWeak(self.provider)
}

func (self *Channel) Requester() (ChannelRequester, bool) {
	return resolveWeak(self.requester)
}

// Close detaches the channel from the record. Operations still attached
// through this channel are resolved with an implicit cancel, monitors are
// closed, and if the channel set empties the handler's OnLastDisconnect
// fires exactly once, after the record lock is released.
// Close is idempotent.
func (self *Channel) Close() {
	alreadyClosed := false
	func() {
		self.mutex.Lock()
		defer self.mutex.Unlock()

		alreadyClosed = self.closed
		self.closed = true
	}()
	if alreadyClosed {
		return
	}

	puts, rpcs, monitors := self.pv.detachChannelOperations(self)
	for _, op := range puts {
		op.cancelPending()
	}
	for _, op := range rpcs {
		op.cancelPending()
	}
	for _, monitor := range monitors {
		monitor.markClosed()
	}

	self.pv.detach(self)

	if 5 < self.pv.Debug() {
		glog.Infof("[spv]close %s %s c(%s)\n", self.requesterName(), self.channelName, self.channelId)
	}
}

func (self *Channel) IsClosed() bool {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	return self.closed
}

// GetField reports the record's type descriptor to the requester:
// immediately when already known, else once when the record opens.
func (self *Channel) GetField(requester GetFieldRequester) {
	typ := self.pv.pendGetField(requester)
	if typ != nil {
		requester.GetDone(pvdata.StatusOK, typ)
	}
}

// CreatePut always creates the operation. On an open channel it registers
// in the record's put set; the connect notification is synchronous when
// the type descriptor is known, else deferred until the record opens.
// On a closed channel the operation resolves immediately with an implicit
// cancel and is never left registered.
//
// The closed check follows registration so that a concurrent Close either
// sees the operation in the set and cancels it, or the re-check here does;
// both removal and cancel are idempotent.
func (self *Channel) CreatePut(requester *WeakRef[PutRequester], pvRequest *pvdata.Value) *Operation {
	op := newPutOperation(self, requester, pvRequest)
	typ := self.pv.registerPut(op)
	if self.IsClosed() {
		self.pv.removePut(op)
		op.cancelPending()
		return op
	}
	if typ != nil {
		op.connectPut(typ)
	}
	return op
}

// CreateRPC registers the operation in the record's rpc set and connects
// synchronously only when the record has already been opened. On a closed
// channel the operation resolves immediately with an implicit cancel.
func (self *Channel) CreateRPC(requester *WeakRef[RPCRequester], pvRequest *pvdata.Value) *Operation {
	op := newRPCOperation(self, requester, pvRequest)
	opened := self.pv.registerRPC(op)
	if self.IsClosed() {
		self.pv.removeRPC(op)
		op.cancelPending()
		return op
	}
	if opened {
		op.connectRPC()
	}
	return op
}

// CreateMonitor registers the queue in the record's monitor set. Against an
// already-opened record the queue is opened and seeded with one snapshot of
// the current value under the lock, and the subscriber is notified after
// the lock is released. On a closed channel the queue is closed immediately
// and never left registered.
func (self *Channel) CreateMonitor(requester *WeakRef[MonitorRequester], pvRequest *pvdata.Value) *MonitorFIFO {
	monitor := newMonitorFIFO(self, requester, pvRequest, self.pv.settings.MonitorQueueSize)
	notify := self.pv.registerMonitor(monitor)
	if self.IsClosed() {
		self.pv.removeMonitor(monitor)
		monitor.markClosed()
		return monitor
	}
	if notify {
		monitor.notify()
	}
	return monitor
}
