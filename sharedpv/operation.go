package sharedpv

import (
	"sync"

	"github.com/golang/glog"

	"github.com/pvtools/sharedpv/pvdata"
)

type operationKind int

const (
	operationPut operationKind = iota
	operationRPC
)

// Operation is one in-flight put or rpc request against a record.
//
// Completion is single use: the first call of Complete, CompleteStatus or
// CompleteValue wins; any later call logs a warning and does nothing. An
// operation abandoned before completion is resolved with an
// "Implicit Cancel" error, either by Destroy or by its channel closing,
// so no client waits forever on a vanished owner.
type Operation struct {
	channel     *Channel
	kind        operationKind
	operationId Id
	pvRequest   *pvdata.Value

	putRequester *WeakRef[PutRequester]
	rpcRequester *WeakRef[RPCRequester]

	mutex     sync.Mutex
	value     *pvdata.Value
	changed   *pvdata.BitSet
	connected bool
	done      bool
}

func newPutOperation(channel *Channel, requester *WeakRef[PutRequester], pvRequest *pvdata.Value) *Operation {
	return &Operation{
		channel:      channel,
		kind:         operationPut,
		operationId:  NewId(),
		pvRequest:    pvRequest,
		putRequester: requester,
	}
}

func newRPCOperation(channel *Channel, requester *WeakRef[RPCRequester], pvRequest *pvdata.Value) *Operation {
	return &Operation{
		channel:      channel,
		kind:         operationRPC,
		operationId:  NewId(),
		pvRequest:    pvRequest,
		rpcRequester: requester,
	}
}

func (self *Operation) OperationId() Id {
	return self.operationId
}

func (self *Operation) PVRequest() *pvdata.Value {
	return self.pvRequest
}

func (self *Operation) Value() *pvdata.Value {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	return self.value
}

func (self *Operation) Changed() *pvdata.BitSet {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	return self.changed
}

// the owning channel, reachable only while its provider is
func (self *Operation) Channel() *Channel {
	if _, ok := resolveWeak(self.channel.provider); ok {
		return self.channel
	}
	return nil
}

// empty when the owning channel is no longer reachable
func (self *Operation) ChannelName() string {
	if channel := self.Channel(); channel != nil {
		return channel.ChannelName()
	}
	return ""
}

func (self *Operation) Requester() (Requester, bool) {
	switch self.kind {
	case operationPut:
		requester, ok := resolveWeak(self.putRequester)
		if !ok {
			return nil, false
		}
		return requester, true
	default:
		requester, ok := resolveWeak(self.rpcRequester)
		if !ok {
			return nil, false
		}
		return requester, true
	}
}

func (self *Operation) IsDebug() bool {
	return 0 < self.channel.pv.Debug()
}

// not yet completed or destroyed
func (self *Operation) Valid() bool {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	return !self.done
}

// delivered to the requester if still reachable, silently dropped otherwise
func (self *Operation) Info(message string) {
	if requester, ok := self.Requester(); ok {
		requester.Message(message, pvdata.SeverityInfo)
	}
}

func (self *Operation) Warn(message string) {
	if requester, ok := self.Requester(); ok {
		requester.Message(message, pvdata.SeverityWarning)
	}
}

func (self *Operation) Complete() {
	self.complete(pvdata.StatusOK, nil, true)
}

func (self *Operation) CompleteStatus(sts pvdata.Status) {
	self.complete(sts, nil, true)
}

// for rpc the value is the call result; for put it is ignored
func (self *Operation) CompleteValue(value *pvdata.Value, changed *pvdata.BitSet) {
	self.complete(pvdata.StatusOK, value, true)
}

func (self *Operation) complete(sts pvdata.Status, result *pvdata.Value, warnOnDouble bool) {
	alreadyDone := false
	func() {
		self.mutex.Lock()
		defer self.mutex.Unlock()

		alreadyDone = self.done
		self.done = true
	}()
	if alreadyDone {
		if warnOnDouble {
			glog.Warningf("[op]double complete %s o(%s)\n", self.channelName(), self.operationId)
		}
		return
	}

	switch self.kind {
	case operationPut:
		if requester, ok := resolveWeak(self.putRequester); ok {
			requester.PutDone(sts, self)
		}
	default:
		if requester, ok := resolveWeak(self.rpcRequester); ok {
			requester.RPCDone(sts, self, result)
		}
	}
}

func (self *Operation) channelName() string {
	return self.channel.channelName
}

// Put captures the client's value and change set and dispatches the
// record handler's OnPut outside the record lock. With no handler
// attached the operation completes with an error status.
func (self *Operation) Put(value *pvdata.Value, changed *pvdata.BitSet) {
	if value == nil {
		self.CompleteStatus(pvdata.ErrorStatus("put requires a value"))
		return
	}
	func() {
		self.mutex.Lock()
		defer self.mutex.Unlock()

		self.value = value.Clone()
		self.changed = changed.Clone()
	}()

	pv := self.channel.pv
	if handler := pv.Handler(); handler != nil {
		handler.OnPut(pv, self)
	} else {
		self.CompleteStatus(pvdata.ErrorStatus("put not supported"))
	}
}

// RPC captures the call arguments and dispatches OnRPC outside the
// record lock.
func (self *Operation) RPC(args *pvdata.Value) {
	if args == nil {
		self.CompleteStatus(pvdata.ErrorStatus("rpc requires arguments"))
		return
	}
	func() {
		self.mutex.Lock()
		defer self.mutex.Unlock()

		self.value = args.Clone()
		self.changed = nil
	}()

	pv := self.channel.pv
	if handler := pv.Handler(); handler != nil {
		handler.OnRPC(pv, self)
	} else {
		self.CompleteStatus(pvdata.ErrorStatus("rpc not supported"))
	}
}

// Destroy detaches the operation from the record. If it is still pending,
// exactly one implicit-cancel failure is delivered to whatever requester
// reference is still reachable. Destroy is idempotent.
func (self *Operation) Destroy() {
	switch self.kind {
	case operationPut:
		self.channel.pv.removePut(self)
	default:
		self.channel.pv.removeRPC(self)
	}
	self.cancelPending()
}

func (self *Operation) cancelPending() {
	self.complete(pvdata.ErrorStatus("Implicit Cancel"), nil, false)
}

// deferred-connect contract: fires exactly once per attachment
func (self *Operation) connectPut(typ *pvdata.TypeDescriptor) {
	alreadyConnected := false
	func() {
		self.mutex.Lock()
		defer self.mutex.Unlock()

		alreadyConnected = self.connected
		self.connected = true
	}()
	if alreadyConnected {
		return
	}

	if requester, ok := resolveWeak(self.putRequester); ok {
		requester.PutConnect(pvdata.StatusOK, self, typ)
	}
}

func (self *Operation) connectRPC() {
	alreadyConnected := false
	func() {
		self.mutex.Lock()
		defer self.mutex.Unlock()

		alreadyConnected = self.connected
		self.connected = true
	}()
	if alreadyConnected {
		return
	}

	if requester, ok := resolveWeak(self.rpcRequester); ok {
		requester.RPCConnect(pvdata.StatusOK, self)
	}
}
