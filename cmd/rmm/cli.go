// Package main is the rmm command: a host-side harness that exercises
// the monitor's RMI surface without real EL3 firmware underneath,
// grounded on gokvm's flag.Parse/kong.Parse entry point (flag/runs.go).
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"

	"github.com/arm-cca/rmm/internal/granule"
	"github.com/arm-cca/rmm/internal/mm"
	"github.com/arm-cca/rmm/internal/realm"
	"github.com/arm-cca/rmm/internal/rmi"
	"github.com/arm-cca/rmm/internal/rmi/handlers"
	"github.com/arm-cca/rmm/internal/rmi/source"
	"github.com/arm-cca/rmm/internal/rmmlog"
	"github.com/arm-cca/rmm/internal/smc"
)

// CLI is the top-level command tree, mirroring the teacher's "one
// struct, one kong.Parse call" shape (flag/runs.go's Parse).
type CLI struct {
	Verbose bool `help:"enable trace-level logging." short:"v"`
	Profile bool `help:"enable CPU profiling for the duration of the command."`

	Boot    BootCmd    `cmd:"" help:"run dispatch loops that wait for RMI events on a live channel."`
	Replay  ReplayCmd  `cmd:"" help:"replay a fixed script of RMI commands against one core."`
	Version VersionCmd `cmd:"" help:"print the RMI ABI version this build implements."`
}

// Parse runs the CLI against os.Args, matching the teacher's
// flag.Parse() signature and error propagation.
func Parse() error {
	c := CLI{}

	ctx := kong.Parse(&c,
		kong.Name("rmm"),
		kong.Description("rmm is a host-side harness for a realm management monitor core"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true, Summary: true}))

	if c.Verbose {
		rmmlog.SetLevel(logrus.TraceLevel)
	}

	if c.Profile {
		defer profile.Start(profile.CPUProfile, profile.NoShutdownHook).Stop()
	}

	return ctx.Run()
}

// services bundles the in-process collaborators a command needs,
// grounded on vmm.VMM's role of owning one *machine.Machine plus its
// memory slab for the whole run (vmm/vmm.go).
type services struct {
	svcs *rmi.Services
}

func newServices() *services {
	flat := mm.New()
	gw := smc.NewLogGateway(smc.NewNullGateway(), rmmlog.SMC)

	return &services{
		svcs: &rmi.Services{
			Granules: granule.NewTable(),
			Registry: realm.NewRegistry(),
			Gateway:  gw,
			MM:       flat,
		},
	}
}

func (s *services) mainloop(core int) *rmi.Mainloop {
	m := rmi.NewMainloop(core, s.svcs, nil)
	handlers.Register(m)

	return m
}

// BootCmd runs Cores dispatch loops, each consuming events from its own
// live channel source, until ctx is canceled. It has nothing to feed
// those channels on its own; it exists as the entry point a real
// firmware-trap receiver would plug into.
type BootCmd struct {
	Cores int `help:"number of per-core dispatch loops to start." default:"1"`
}

func (b *BootCmd) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newServices()

	errs := make(chan error, b.Cores)

	for core := 0; core < b.Cores; core++ {
		core := core
		src := source.NewChan(1)

		go func() {
			errs <- s.mainloop(core).Run(ctx, src)
		}()
	}

	for i := 0; i < b.Cores; i++ {
		if err := <-errs; err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}

	return nil
}

// ReplayCmd runs a fixed sequence of RMI commands, loaded from a script
// file via loadScript, against a single core. It prints nothing itself;
// reply vectors appear only in the SMC trace log enabled by -v.
type ReplayCmd struct {
	Script string `arg:"" help:"path to a script file of RMI commands, one per line."`
}

func (r *ReplayCmd) Run() error {
	events, err := loadScript(r.Script)
	if err != nil {
		return err
	}

	s := newServices()
	src := source.NewScript(events...)

	// LogGateway already traces every (cmd, args, ret) triple through
	// RMM_REQ_COMPLETE, so replay output comes from -v rather than a
	// second print path here.
	return s.mainloop(0).Run(context.Background(), src)
}

// VersionCmd prints the ABI version the build implements.
type VersionCmd struct{}

func (v *VersionCmd) Run() error {
	fmt.Printf("rmi abi version %d\n", rmi.ABIVersion)

	return nil
}
