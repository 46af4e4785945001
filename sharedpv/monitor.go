package sharedpv

import (
	"sync"

	"github.com/pvtools/sharedpv/pvdata"
)

// one queued update: a snapshot of the record value plus its validity
type MonitorElement struct {
	Value   *pvdata.Value
	Valid   bool
	Changed *pvdata.BitSet
	// bits that were posted more than once while this element
	// waited at the tail of a full queue
	Overrun *pvdata.BitSet
}

// MonitorFIFO is a per-subscriber ordered delivery queue for one record.
//
// post only makes data available; a separate notify step, always outside
// the record's lock, tells the subscriber data is ready to drain with Poll.
// When the queue is full the newest update is squashed into the tail
// element and the change sets are merged, so a slow subscriber sees a
// coalesced but complete final state.
//
// post and open are called under the record's lock; the FIFO's own lock
// is always acquired after it, never before.
type MonitorFIFO struct {
	channel   *Channel
	monitorId Id
	pvRequest *pvdata.Value
	requester *WeakRef[MonitorRequester]
	queueSize int

	mutex           sync.Mutex
	typ             *pvdata.TypeDescriptor
	opened          bool
	connectNotified bool
	eventNotified   bool
	closed          bool
	queue           []*MonitorElement
}

func newMonitorFIFO(channel *Channel, requester *WeakRef[MonitorRequester], pvRequest *pvdata.Value, queueSize int) *MonitorFIFO {
	if queueSize < 1 {
		queueSize = 1
	}
	return &MonitorFIFO{
		channel:   channel,
		monitorId: NewId(),
		pvRequest: pvRequest,
		requester: requester,
		queueSize: queueSize,
	}
}

func (self *MonitorFIFO) MonitorId() Id {
	return self.monitorId
}

func (self *MonitorFIFO) Channel() *Channel {
	return self.channel
}

func (self *MonitorFIFO) PVRequest() *pvdata.Value {
	return self.pvRequest
}

func (self *MonitorFIFO) Queued() int {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	return len(self.queue)
}

// called once, when the type descriptor first becomes known
func (self *MonitorFIFO) open(typ *pvdata.TypeDescriptor) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	if self.opened {
		return
	}
	self.opened = true
	self.typ = typ
}

func (self *MonitorFIFO) post(value *pvdata.Value, valid bool, changed *pvdata.BitSet) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	if !self.opened || self.closed {
		return
	}

	// nil means all leaves changed
	if changed == nil {
		changed = pvdata.NewBitSet()
		for i := 0; i < self.typ.NumFields(); i += 1 {
			changed.Set(i)
		}
	}

	if len(self.queue) < self.queueSize {
		self.queue = append(self.queue, &MonitorElement{
			Value:   value.Clone(),
			Valid:   valid,
			Changed: changed.Clone(),
		})
		return
	}

	// full: squash into the tail, merging change sets
	tail := self.queue[len(self.queue)-1]
	tail.Value = value.Clone()
	tail.Valid = valid
	overrun := changed.Clone()
	overrun.And(tail.Changed)
	if tail.Overrun == nil {
		tail.Overrun = overrun
	} else {
		tail.Overrun.Or(overrun)
	}
	tail.Changed.Or(changed)
}

// delivers the connect notification once, then the data-ready notification
// whenever undrained updates are pending; never called under the record lock
func (self *MonitorFIFO) notify() {
	deliverConnect := false
	deliverEvent := false
	var typ *pvdata.TypeDescriptor

	func() {
		self.mutex.Lock()
		defer self.mutex.Unlock()

		if self.closed {
			return
		}
		if self.opened && !self.connectNotified {
			self.connectNotified = true
			deliverConnect = true
			typ = self.typ
		}
		if 0 < len(self.queue) && !self.eventNotified {
			self.eventNotified = true
			deliverEvent = true
		}
	}()

	if !deliverConnect && !deliverEvent {
		return
	}
	requester, ok := resolveWeak(self.requester)
	if !ok {
		return
	}
	if deliverConnect {
		requester.MonitorConnect(pvdata.StatusOK, self, typ)
	}
	if deliverEvent {
		requester.MonitorEvent(self)
	}
}

// Poll dequeues the next update, or nil when the queue is empty.
// Draining the queue re-arms the data-ready notification.
func (self *MonitorFIFO) Poll() *MonitorElement {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	if len(self.queue) == 0 {
		self.eventNotified = false
		return nil
	}
	element := self.queue[0]
	self.queue = self.queue[1:]
	if len(self.queue) == 0 {
		self.eventNotified = false
	}
	return element
}

// Destroy removes the queue from the record's monitor set, symmetric
// with registration, and drops any undrained updates.
func (self *MonitorFIFO) Destroy() {
	self.channel.pv.removeMonitor(self)
	self.markClosed()
}

func (self *MonitorFIFO) markClosed() {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	self.closed = true
	self.queue = nil
}
