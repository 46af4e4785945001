package sharedpv

import (
	"github.com/pvtools/sharedpv/pvdata"
)

// MailboxHandler stores the last put value and echoes rpc arguments.
// Useful as a soft record for tests, demos and simple gateways.
type MailboxHandler struct {
	UnsupportedHandler
}

func NewMailboxHandler() *MailboxHandler {
	return &MailboxHandler{}
}

func (self *MailboxHandler) OnPut(pv *SharedPV, op *Operation) {
	if err := pv.Post(op.Value(), op.Changed()); err != nil {
		op.CompleteStatus(pvdata.ErrorStatus(err.Error()))
		return
	}
	op.Complete()
}

func (self *MailboxHandler) OnRPC(pv *SharedPV, op *Operation) {
	op.CompleteValue(op.Value(), nil)
}
