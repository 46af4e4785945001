package sharedpv

import (
	"github.com/pvtools/sharedpv/pvdata"
)

// a named source of channels (records)
type Provider interface {
	ProviderName() string
	// returns false when the provider has no record with this name
	CreateChannel(channelName string, requester *WeakRef[ChannelRequester]) (*Channel, bool)
}

// ProviderFactory produces provider instances for the registry.
//
// Reentrancy constraint: `SharedInstance` and `NewInstance` are invoked while
// the registry lock is held. They must not call back into the registry.
type ProviderFactory interface {
	FactoryName() string
	SharedInstance() Provider
	NewInstance() Provider
}

// lifecycle hooks for a shared record
// all hooks are invoked outside the record's lock,
// so a hook may safely call back into the record
type Handler interface {
	// the channel set went from empty to non-empty
	OnFirstConnect(pv *SharedPV)
	// the channel set went from non-empty to empty
	OnLastDisconnect(pv *SharedPV)
	// a client issued a put; the handler must complete `op` exactly once
	OnPut(pv *SharedPV, op *Operation)
	// a client issued an rpc; the handler must complete `op` exactly once
	OnRPC(pv *SharedPV, op *Operation)
}

type Requester interface {
	Message(message string, severity pvdata.Severity)
}

type ChannelRequester interface {
	Requester
	RequesterName() string
}

type GetFieldRequester interface {
	Requester
	GetDone(sts pvdata.Status, typ *pvdata.TypeDescriptor)
}

type PutRequester interface {
	Requester
	PutConnect(sts pvdata.Status, op *Operation, typ *pvdata.TypeDescriptor)
	PutDone(sts pvdata.Status, op *Operation)
}

type RPCRequester interface {
	Requester
	RPCConnect(sts pvdata.Status, op *Operation)
	RPCDone(sts pvdata.Status, op *Operation, result *pvdata.Value)
}

type MonitorRequester interface {
	Requester
	MonitorConnect(sts pvdata.Status, monitor *MonitorFIFO, typ *pvdata.TypeDescriptor)
	// new data is available to `Poll`
	MonitorEvent(monitor *MonitorFIFO)
}

// no-op lifecycle hooks, put and rpc rejected
// embed this to implement a subset of `Handler`
type UnsupportedHandler struct {
}

func (self *UnsupportedHandler) OnFirstConnect(pv *SharedPV) {
}

func (self *UnsupportedHandler) OnLastDisconnect(pv *SharedPV) {
}

func (self *UnsupportedHandler) OnPut(pv *SharedPV, op *Operation) {
	op.CompleteStatus(pvdata.ErrorStatus("put not supported"))
}

func (self *UnsupportedHandler) OnRPC(pv *SharedPV, op *Operation) {
	op.CompleteStatus(pvdata.ErrorStatus("rpc not supported"))
}
