package sharedpv

import (
	"flag"
	"testing"

	"github.com/go-playground/assert/v2"
)

func init() {
	initGlog()
}

func initGlog() {
	flag.Set("logtostderr", "true")
	flag.Set("stderrthreshold", "INFO")
	flag.Set("v", "0")
}

type testProviderFactory struct {
	name   string
	shared Provider
}

func newTestProviderFactory(name string) *testProviderFactory {
	return &testProviderFactory{
		name:   name,
		shared: NewStaticProvider(name),
	}
}

func (self *testProviderFactory) FactoryName() string {
	return self.name
}

func (self *testProviderFactory) SharedInstance() Provider {
	return self.shared
}

func (self *testProviderFactory) NewInstance() Provider {
	return NewStaticProvider(self.name)
}

func TestRegistryLookup(t *testing.T) {
	registry := NewRegistry()

	factory := newTestProviderFactory("x")
	registry.Register(factory)

	provider, ok := registry.GetProvider("x")
	assert.Equal(t, ok, true)
	assert.Equal(t, provider, factory.shared)

	// the shared instance is a singleton
	provider2, ok := registry.GetProvider("x")
	assert.Equal(t, ok, true)
	assert.Equal(t, provider2, provider)

	// created instances are fresh
	created, ok := registry.CreateProvider("x")
	assert.Equal(t, ok, true)
	// identity comparison: assert.NotEqual deep-compares through pointers,
	// so two fresh empty providers with the same name would compare equal
	assert.Equal(t, created != provider, true)

	_, ok = registry.GetProvider("y")
	assert.Equal(t, ok, false)
	_, ok = registry.CreateProvider("y")
	assert.Equal(t, ok, false)

	registry.Unregister(factory)
	_, ok = registry.GetProvider("x")
	assert.Equal(t, ok, false)

	// unregister of an absent factory is a no-op
	registry.Unregister(factory)
}

func TestRegistryReplace(t *testing.T) {
	registry := NewRegistry()

	factoryA := newTestProviderFactory("x")
	factoryB := newTestProviderFactory("x")

	registry.Register(factoryA)
	registry.Register(factoryB)

	provider, ok := registry.GetProvider("x")
	assert.Equal(t, ok, true)
	assert.Equal(t, provider, factoryB.shared)

	assert.Equal(t, registry.ProviderNames(), []string{"x"})
}

func TestRegistryAlias(t *testing.T) {
	registry := NewRegistry()

	factory := newTestProviderFactory("pva")
	registry.Register(factory)

	// the historical name redirects to the canonical name
	provider, ok := registry.GetProvider("pvAccess")
	assert.Equal(t, ok, true)

	canonical, ok := registry.GetProvider("pva")
	assert.Equal(t, ok, true)
	assert.Equal(t, provider, canonical)

	_, ok = registry.CreateProvider("pvAccess")
	assert.Equal(t, ok, true)

	registry.Unregister(factory)
	_, ok = registry.GetProvider("pvAccess")
	assert.Equal(t, ok, false)
}

func TestRegistryNames(t *testing.T) {
	registry := NewRegistry()

	assert.Equal(t, registry.ProviderNames(), []string{})

	factoryA := newTestProviderFactory("a")
	factoryB := newTestProviderFactory("b")
	registry.Register(factoryA)
	registry.Register(factoryB)
	assert.Equal(t, registry.ProviderNames(), []string{"a", "b"})

	// replacing does not duplicate
	registry.Register(newTestProviderFactory("b"))
	assert.Equal(t, registry.ProviderNames(), []string{"a", "b"})

	registry.Unregister(factoryA)
	assert.Equal(t, registry.ProviderNames(), []string{"b"})
}

func TestDefaultRegistry(t *testing.T) {
	assert.Equal(t, DefaultRegistry(), DefaultRegistry())

	factory := newTestProviderFactory("default-test")
	RegisterProviderFactory(factory)

	provider, ok := DefaultRegistry().GetProvider("default-test")
	assert.Equal(t, ok, true)
	assert.Equal(t, provider, factory.shared)

	UnregisterProviderFactory(factory)
	_, ok = DefaultRegistry().GetProvider("default-test")
	assert.Equal(t, ok, false)
}
