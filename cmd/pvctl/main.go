package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/docopt/docopt-go"

	"github.com/pvtools/sharedpv/pvdata"
	"github.com/pvtools/sharedpv/sharedpv"
)

const PvCtlVersion = "0.0.1"

var Out *log.Logger
var Err *log.Logger

func init() {
	Out = log.New(os.Stdout, "", 0)
	Err = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lshortfile)

	flag.Set("logtostderr", "true")
	flag.Set("stderrthreshold", "INFO")
}

func main() {
	usage := `Shared PV control.

Runs an in-process shared record and drives it with channels,
puts and a monitor.

Usage:
    pvctl demo [--pv=<pv_name>]
        [--puts=<put_count>]
        [--debug=<debug_level>]
    pvctl providers

Options:
    -h --help                Show this screen.
    --version                Show version.
    --pv=<pv_name>           Record name [default: counter].
    --puts=<put_count>       Number of puts to issue [default: 5].
    --debug=<debug_level>    Record debug verbosity [default: 0].`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], PvCtlVersion)
	if err != nil {
		panic(err)
	}

	if demo_, _ := opts.Bool("demo"); demo_ {
		demo(opts)
	} else if providers_, _ := opts.Bool("providers"); providers_ {
		providers(opts)
	}
}

// channel, put and monitor requester for the demo client
type demoRequester struct {
	name string
}

func (self *demoRequester) RequesterName() string {
	return self.name
}

func (self *demoRequester) Message(message string, severity pvdata.Severity) {
	Out.Printf("%s: %s: %s\n", self.name, severity, message)
}

func (self *demoRequester) PutConnect(sts pvdata.Status, op *sharedpv.Operation, typ *pvdata.TypeDescriptor) {
	Out.Printf("%s: put connected %s %s\n", self.name, sts, typ)
}

func (self *demoRequester) PutDone(sts pvdata.Status, op *sharedpv.Operation) {
	Out.Printf("%s: put done %s\n", self.name, sts)
}

func (self *demoRequester) MonitorConnect(sts pvdata.Status, monitor *sharedpv.MonitorFIFO, typ *pvdata.TypeDescriptor) {
	Out.Printf("%s: monitor connected %s %s\n", self.name, sts, typ)
}

func (self *demoRequester) MonitorEvent(monitor *sharedpv.MonitorFIFO) {
	for element := monitor.Poll(); element != nil; element = monitor.Poll() {
		Out.Printf("%s: update valid=%t changed=%s %s\n", self.name, element.Valid, element.Changed, element.Value)
	}
}

func demo(opts docopt.Opts) {
	pvName, err := opts.String("--pv")
	if err != nil {
		panic(err)
	}
	putCountStr, err := opts.String("--puts")
	if err != nil {
		panic(err)
	}
	putCount, err := strconv.Atoi(putCountStr)
	if err != nil {
		panic(err)
	}
	debugLvlStr, err := opts.String("--debug")
	if err != nil {
		panic(err)
	}
	debugLvl, err := strconv.Atoi(debugLvlStr)
	if err != nil {
		panic(err)
	}

	pv := sharedpv.NewSharedPVWithDefaults(sharedpv.NewMailboxHandler())
	pv.SetDebug(debugLvl)

	staticProvider := sharedpv.NewStaticProvider("pva")
	staticProvider.Add(pvName, pv)
	sharedpv.RegisterProviderFactory(staticProvider.Factory())
	defer sharedpv.UnregisterProviderFactory(staticProvider.Factory())

	// the historical name resolves to the canonical provider
	provider, ok := sharedpv.DefaultRegistry().GetProvider("pvAccess")
	if !ok {
		Err.Fatalf("provider not found")
	}

	requester := &demoRequester{
		name: "pvctl",
	}
	requesterRef := sharedpv.NewWeakRef[sharedpv.ChannelRequester](requester)
	channel, ok := provider.CreateChannel(pvName, requesterRef)
	if !ok {
		Err.Fatalf("no record named %s", pvName)
	}
	defer channel.Close()

	monitor := channel.CreateMonitor(sharedpv.NewWeakRef[sharedpv.MonitorRequester](requester), nil)
	defer monitor.Destroy()

	initial := pvdata.RequireValue(map[string]any{
		"value": float64(0),
		"alarm": map[string]any{
			"severity": float64(0),
			"message":  "",
		},
	})
	if err := pv.Open(initial); err != nil {
		Err.Fatalf("open failed: %v", err)
	}

	typ := pv.TypeDescriptor()
	valueIndex, _ := typ.Index("value")

	for i := 1; i <= putCount; i += 1 {
		op := channel.CreatePut(sharedpv.NewWeakRef[sharedpv.PutRequester](requester), nil)
		next := initial.Clone()
		next.Set("value", float64(i))
		op.Put(next, pvdata.BitSetOf(valueIndex))
	}

	current, valid := pv.Fetch()
	Out.Printf("final valid=%t %s\n", valid, current)

	pv.Close()
}

func providers(opts docopt.Opts) {
	staticProvider := sharedpv.NewStaticProvider("pva")
	sharedpv.RegisterProviderFactory(staticProvider.Factory())
	defer sharedpv.UnregisterProviderFactory(staticProvider.Factory())

	for _, providerName := range sharedpv.DefaultRegistry().ProviderNames() {
		fmt.Fprintln(os.Stdout, providerName)
	}
}
