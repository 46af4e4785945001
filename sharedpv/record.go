package sharedpv

import (
	"errors"
	"sync"

	"github.com/golang/glog"

	"golang.org/x/exp/slices"

	"github.com/pvtools/sharedpv/pvdata"
)

func DefaultSharedPVSettings() *SharedPVSettings {
	return &SharedPVSettings{
		MonitorQueueSize: 4,
	}
}

type SharedPVSettings struct {
	// updates buffered per monitor before coalescing into the tail
	MonitorQueueSize int
}

// SharedPV is the server-side shared, mutable, typed record.
// All channels attached to the same name share one SharedPV.
//
// One lock guards the current value, the type descriptor and all four
// attachment sets. State is mutated under the lock; callbacks into
// requester and handler code are always invoked after the lock is
// released, so callback code may re-enter the record.
//
// Lock order is SharedPV.mutex then MonitorFIFO.mutex, never reversed.
type SharedPV struct {
	settings *SharedPVSettings

	mutex sync.Mutex

	handler Handler

	// set once, never reverts to absent
	typ     *pvdata.TypeDescriptor
	current *pvdata.Value
	valid   bool

	channels []*Channel
	puts     []*Operation
	rpcs     []*Operation
	monitors []*MonitorFIFO

	// pending requesters awaiting the type descriptor
	getFields []GetFieldRequester

	debugLvl int
}

func NewSharedPVWithDefaults(handler Handler) *SharedPV {
	return NewSharedPV(handler, DefaultSharedPVSettings())
}

func NewSharedPV(handler Handler, settings *SharedPVSettings) *SharedPV {
	return &SharedPV{
		settings: settings,
		handler:  handler,
	}
}

func (self *SharedPV) SetHandler(handler Handler) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	self.handler = handler
}

func (self *SharedPV) Handler() Handler {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	return self.handler
}

func (self *SharedPV) SetDebug(debugLvl int) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	self.debugLvl = debugLvl
}

func (self *SharedPV) Debug() int {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	return self.debugLvl
}

func (self *SharedPV) IsOpen() bool {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	return self.valid
}

func (self *SharedPV) TypeDescriptor() *pvdata.TypeDescriptor {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	return self.typ
}

// snapshot of the current value and its validity
func (self *SharedPV) Fetch() (*pvdata.Value, bool) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	if self.current == nil {
		return nil, false
	}
	return self.current.Clone(), self.valid
}

func (self *SharedPV) ChannelCount() int {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	return len(self.channels)
}

// Open establishes the type descriptor from the initial value and marks the
// record valid. Every pending get-field, put-connect and rpc-connect
// requester is notified exactly once, and every registered monitor is
// opened, seeded with one snapshot, and notified.
//
// Reopening a closed record requires a value compatible with the original
// type descriptor, which never changes once set.
func (self *SharedPV) Open(value *pvdata.Value) error {
	if value == nil {
		return errors.New("open requires an initial value")
	}

	var typ *pvdata.TypeDescriptor
	var getFields []GetFieldRequester
	var puts []*Operation
	var rpcs []*Operation
	var monitors []*MonitorFIFO

	err := func() error {
		self.mutex.Lock()
		defer self.mutex.Unlock()

		if self.valid {
			return errors.New("record is already open")
		}
		if self.typ == nil {
			self.typ = pvdata.Describe(value)
		} else if !self.typ.Compatible(value) {
			return errors.New("value is not compatible with the record type")
		}
		self.current = value.Clone()
		self.valid = true
		typ = self.typ

		// drained exactly once; enqueue and drain are linearized by the lock
		getFields = self.getFields
		self.getFields = nil

		puts = slices.Clone(self.puts)
		rpcs = slices.Clone(self.rpcs)
		monitors = slices.Clone(self.monitors)

		// open and seed under the lock, notify after release
		for _, monitor := range self.monitors {
			monitor.open(typ)
			monitor.post(self.current, true, nil)
		}
		return nil
	}()
	if err != nil {
		return err
	}

	if 0 < self.Debug() {
		glog.Infof("[spv]open %s\n", typ)
	}

	for _, requester := range getFields {
		requester.GetDone(pvdata.StatusOK, typ)
	}
	for _, op := range puts {
		op.connectPut(typ)
	}
	for _, op := range rpcs {
		op.connectRPC()
	}
	for _, monitor := range monitors {
		monitor.notify()
	}
	return nil
}

// Post commits a change to the record: the changed leaves of `value` are
// merged into the current value and one update is queued to every monitor.
// A nil or empty change set means all leaves changed.
func (self *SharedPV) Post(value *pvdata.Value, changed *pvdata.BitSet) error {
	var monitors []*MonitorFIFO

	err := func() error {
		self.mutex.Lock()
		defer self.mutex.Unlock()

		if !self.valid {
			return errors.New("record is not open")
		}
		pvdata.ApplyChanged(self.typ, self.current, value, changed)
		monitors = slices.Clone(self.monitors)
		for _, monitor := range self.monitors {
			monitor.post(self.current, true, changed)
		}
		return nil
	}()
	if err != nil {
		return err
	}

	for _, monitor := range monitors {
		monitor.notify()
	}
	return nil
}

// Close marks the record invalid and posts one valid=false update to every
// monitor. The type descriptor is retained, so the record can be reopened
// with a compatible value.
func (self *SharedPV) Close() {
	var monitors []*MonitorFIFO

	func() {
		self.mutex.Lock()
		defer self.mutex.Unlock()

		if !self.valid {
			return
		}
		self.valid = false
		monitors = slices.Clone(self.monitors)
		for _, monitor := range self.monitors {
			monitor.post(self.current, false, nil)
		}
	}()

	for _, monitor := range monitors {
		monitor.notify()
	}
}

func (self *SharedPV) attach(channel *Channel) {
	var handler Handler

	func() {
		self.mutex.Lock()
		defer self.mutex.Unlock()

		if len(self.channels) == 0 {
			handler = self.handler
		}
		self.channels = append(self.channels, channel)
	}()

	if handler != nil {
		handler.OnFirstConnect(self)
	}
}

func (self *SharedPV) detach(channel *Channel) {
	var handler Handler

	func() {
		self.mutex.Lock()
		defer self.mutex.Unlock()

		i := slices.Index(self.channels, channel)
		if i < 0 {
			return
		}
		self.channels = slices.Delete(self.channels, i, i+1)
		// the removal and the emptiness check must be atomic
		// with respect to concurrent opens
		if len(self.channels) == 0 {
			handler = self.handler
		}
	}()

	if handler != nil {
		handler.OnLastDisconnect(self)
	}
}

// returns the type descriptor if known, else enqueues the requester
// an enqueued requester is notified exactly once when the record opens
func (self *SharedPV) pendGetField(requester GetFieldRequester) *pvdata.TypeDescriptor {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	if self.typ != nil {
		return self.typ
	}
	self.getFields = append(self.getFields, requester)
	return nil
}

func (self *SharedPV) registerPut(op *Operation) *pvdata.TypeDescriptor {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	self.puts = append(self.puts, op)
	return self.typ
}

func (self *SharedPV) registerRPC(op *Operation) bool {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	self.rpcs = append(self.rpcs, op)
	return self.typ != nil
}

// registers the monitor; when the type descriptor is known the queue is
// opened and seeded with the current value and validity under the lock,
// and the caller notifies after release
// a closed record still seeds one valid=false snapshot
func (self *SharedPV) registerMonitor(monitor *MonitorFIFO) bool {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	self.monitors = append(self.monitors, monitor)
	if self.typ == nil {
		return false
	}
	monitor.open(self.typ)
	monitor.post(self.current, self.valid, nil)
	return true
}

func (self *SharedPV) removePut(op *Operation) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	if i := slices.Index(self.puts, op); 0 <= i {
		self.puts = slices.Delete(self.puts, i, i+1)
	}
}

func (self *SharedPV) removeRPC(op *Operation) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	if i := slices.Index(self.rpcs, op); 0 <= i {
		self.rpcs = slices.Delete(self.rpcs, i, i+1)
	}
}

func (self *SharedPV) removeMonitor(monitor *MonitorFIFO) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	if i := slices.Index(self.monitors, monitor); 0 <= i {
		self.monitors = slices.Delete(self.monitors, i, i+1)
	}
}

// removes every operation and monitor attached through `channel`
// in one critical section, returning them for out-of-lock resolution
func (self *SharedPV) detachChannelOperations(channel *Channel) (puts []*Operation, rpcs []*Operation, monitors []*MonitorFIFO) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	keepPuts := []*Operation{}
	for _, op := range self.puts {
		if op.channel == channel {
			puts = append(puts, op)
		} else {
			keepPuts = append(keepPuts, op)
		}
	}
	self.puts = keepPuts

	keepRPCs := []*Operation{}
	for _, op := range self.rpcs {
		if op.channel == channel {
			rpcs = append(rpcs, op)
		} else {
			keepRPCs = append(keepRPCs, op)
		}
	}
	self.rpcs = keepRPCs

	keepMonitors := []*MonitorFIFO{}
	for _, monitor := range self.monitors {
		if monitor.channel == channel {
			monitors = append(monitors, monitor)
		} else {
			keepMonitors = append(keepMonitors, monitor)
		}
	}
	self.monitors = keepMonitors

	return
}
