package sharedpv

import (
	"sync"

	"github.com/golang/glog"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// historical provider names redirected to their canonical name before lookup
var providerAliases = map[string]string{
	"pvAccess": "pva",
}

func resolveProviderName(providerName string) string {
	if canonicalName, ok := providerAliases[providerName]; ok {
		return canonicalName
	}
	return providerName
}

// directory of provider factories keyed by name
// the registry lock and a record's lock never nest
type Registry struct {
	mutex     sync.Mutex
	factories map[string]ProviderFactory
}

func NewRegistry() *Registry {
	return &Registry{
		factories: map[string]ProviderFactory{},
	}
}

// replaces any prior factory with the same name
func (self *Registry) Register(factory ProviderFactory) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	glog.V(2).Infof("[reg]register %s\n", factory.FactoryName())
	self.factories[factory.FactoryName()] = factory
}

// removes the entry with this factory's name if present, else no-op
func (self *Registry) Unregister(factory ProviderFactory) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	glog.V(2).Infof("[reg]unregister %s\n", factory.FactoryName())
	delete(self.factories, factory.FactoryName())
}

// the shared singleton instance for the name, or false if unknown
func (self *Registry) GetProvider(providerName string) (Provider, bool) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	factory, ok := self.factories[resolveProviderName(providerName)]
	if !ok {
		return nil, false
	}
	return factory.SharedInstance(), true
}

// a newly constructed instance for the name, or false if unknown
func (self *Registry) CreateProvider(providerName string) (Provider, bool) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	factory, ok := self.factories[resolveProviderName(providerName)]
	if !ok {
		return nil, false
	}
	return factory.NewInstance(), true
}

// snapshot of the currently registered names
func (self *Registry) ProviderNames() []string {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	providerNames := maps.Keys(self.factories)
	slices.Sort(providerNames)
	return providerNames
}

var defaultRegistryInit sync.Once
var defaultRegistry *Registry

// process-wide registry, created lazily on first use
func DefaultRegistry() *Registry {
	defaultRegistryInit.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

func RegisterProviderFactory(factory ProviderFactory) {
	DefaultRegistry().Register(factory)
}

func UnregisterProviderFactory(factory ProviderFactory) {
	DefaultRegistry().Unregister(factory)
}
