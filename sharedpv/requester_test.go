package sharedpv

import (
	"sync"

	"github.com/pvtools/sharedpv/pvdata"
)

// requester fakes shared by the lifecycle, operation and monitor tests

type testRequester struct {
	name string

	mutex    sync.Mutex
	messages []string
}

func (self *testRequester) RequesterName() string {
	return self.name
}

func (self *testRequester) Message(message string, severity pvdata.Severity) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	self.messages = append(self.messages, message)
}

func (self *testRequester) Messages() []string {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	return append([]string{}, self.messages...)
}

type testHandler struct {
	UnsupportedHandler

	mutex           sync.Mutex
	firstConnects   int
	lastDisconnects int
}

func (self *testHandler) OnFirstConnect(pv *SharedPV) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	self.firstConnects += 1
}

func (self *testHandler) OnLastDisconnect(pv *SharedPV) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	self.lastDisconnects += 1
}

func (self *testHandler) FirstConnects() int {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	return self.firstConnects
}

func (self *testHandler) LastDisconnects() int {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	return self.lastDisconnects
}

type testGetFieldRequester struct {
	testRequester

	doneMutex sync.Mutex
	statuses  []pvdata.Status
	types     []*pvdata.TypeDescriptor
}

func (self *testGetFieldRequester) GetDone(sts pvdata.Status, typ *pvdata.TypeDescriptor) {
	self.doneMutex.Lock()
	defer self.doneMutex.Unlock()

	self.statuses = append(self.statuses, sts)
	self.types = append(self.types, typ)
}

func (self *testGetFieldRequester) Dones() int {
	self.doneMutex.Lock()
	defer self.doneMutex.Unlock()

	return len(self.statuses)
}

type testPutRequester struct {
	testRequester

	doneMutex    sync.Mutex
	connects     int
	connectTypes []*pvdata.TypeDescriptor
	dones        []pvdata.Status
}

func (self *testPutRequester) PutConnect(sts pvdata.Status, op *Operation, typ *pvdata.TypeDescriptor) {
	self.doneMutex.Lock()
	defer self.doneMutex.Unlock()

	self.connects += 1
	self.connectTypes = append(self.connectTypes, typ)
}

func (self *testPutRequester) PutDone(sts pvdata.Status, op *Operation) {
	self.doneMutex.Lock()
	defer self.doneMutex.Unlock()

	self.dones = append(self.dones, sts)
}

func (self *testPutRequester) Connects() int {
	self.doneMutex.Lock()
	defer self.doneMutex.Unlock()

	return self.connects
}

func (self *testPutRequester) Dones() []pvdata.Status {
	self.doneMutex.Lock()
	defer self.doneMutex.Unlock()

	return append([]pvdata.Status{}, self.dones...)
}

type testRPCRequester struct {
	testRequester

	doneMutex sync.Mutex
	connects  int
	dones     []pvdata.Status
	results   []*pvdata.Value
}

func (self *testRPCRequester) RPCConnect(sts pvdata.Status, op *Operation) {
	self.doneMutex.Lock()
	defer self.doneMutex.Unlock()

	self.connects += 1
}

func (self *testRPCRequester) RPCDone(sts pvdata.Status, op *Operation, result *pvdata.Value) {
	self.doneMutex.Lock()
	defer self.doneMutex.Unlock()

	self.dones = append(self.dones, sts)
	self.results = append(self.results, result)
}

func (self *testRPCRequester) Connects() int {
	self.doneMutex.Lock()
	defer self.doneMutex.Unlock()

	return self.connects
}

func (self *testRPCRequester) Dones() []pvdata.Status {
	self.doneMutex.Lock()
	defer self.doneMutex.Unlock()

	return append([]pvdata.Status{}, self.dones...)
}

func (self *testRPCRequester) Results() []*pvdata.Value {
	self.doneMutex.Lock()
	defer self.doneMutex.Unlock()

	return append([]*pvdata.Value{}, self.results...)
}

type testMonitorRequester struct {
	testRequester

	doneMutex sync.Mutex
	connects  int
	events    int
}

func (self *testMonitorRequester) MonitorConnect(sts pvdata.Status, monitor *MonitorFIFO, typ *pvdata.TypeDescriptor) {
	self.doneMutex.Lock()
	defer self.doneMutex.Unlock()

	self.connects += 1
}

func (self *testMonitorRequester) MonitorEvent(monitor *MonitorFIFO) {
	self.doneMutex.Lock()
	defer self.doneMutex.Unlock()

	self.events += 1
}

func (self *testMonitorRequester) Connects() int {
	self.doneMutex.Lock()
	defer self.doneMutex.Unlock()

	return self.connects
}

func (self *testMonitorRequester) Events() int {
	self.doneMutex.Lock()
	defer self.doneMutex.Unlock()

	return self.events
}

func testChannelRequesterRef(name string) *WeakRef[ChannelRequester] {
	return NewWeakRef[ChannelRequester](&testRequester{
		name: name,
	})
}
