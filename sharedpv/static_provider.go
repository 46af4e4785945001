package sharedpv

import (
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// StaticProvider serves a fixed, explicitly managed set of named records.
type StaticProvider struct {
	providerName string

	// channels resolve the provider through this ref;
	// Close expires it, after which attached channels report no provider
	selfRef *WeakRef[Provider]

	mutex sync.Mutex
	pvs   map[string]*SharedPV
}

func NewStaticProvider(providerName string) *StaticProvider {
	provider := &StaticProvider{
		providerName: providerName,
		pvs:          map[string]*SharedPV{},
	}
	provider.selfRef = NewWeakRef[Provider](provider)
	return provider
}

func (self *StaticProvider) ProviderName() string {
	return self.providerName
}

func (self *StaticProvider) Add(pvName string, pv *SharedPV) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	self.pvs[pvName] = pv
}

func (self *StaticProvider) Remove(pvName string) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	delete(self.pvs, pvName)
}

func (self *StaticProvider) PVNames() []string {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	pvNames := maps.Keys(self.pvs)
	slices.Sort(pvNames)
	return pvNames
}

func (self *StaticProvider) CreateChannel(channelName string, requester *WeakRef[ChannelRequester]) (*Channel, bool) {
	var pv *SharedPV
	var ok bool
	func() {
		self.mutex.Lock()
		defer self.mutex.Unlock()

		pv, ok = self.pvs[channelName]
	}()
	if !ok {
		return nil, false
	}
	// attach outside the provider lock; the record lock and this lock never nest
	return pv.Attach(self.selfRef, channelName, requester), true
}

func (self *StaticProvider) Close() {
	self.selfRef.Expire()
}

// Factory places the provider in a registry. A static provider is
// inherently shared: NewInstance returns the same instance.
func (self *StaticProvider) Factory() ProviderFactory {
	return &staticProviderFactory{
		provider: self,
	}
}

type staticProviderFactory struct {
	provider *StaticProvider
}

func (self *staticProviderFactory) FactoryName() string {
	return self.provider.providerName
}

func (self *staticProviderFactory) SharedInstance() Provider {
	return self.provider
}

func (self *staticProviderFactory) NewInstance() Provider {
	return self.provider
}
