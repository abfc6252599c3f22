// Command pvmctl runs, debugs, or serves introspection for a single PVM
// program blob: run a program to termination, step it in a terminal
// debugger, or expose it over the inspection API.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Esscrypt/peanutbutterandjam-sub002/chainspec"
	"github.com/Esscrypt/peanutbutterandjam-sub002/debugger"
	"github.com/Esscrypt/peanutbutterandjam-sub002/hostcall"
	"github.com/Esscrypt/peanutbutterandjam-sub002/inspect"
	"github.com/Esscrypt/peanutbutterandjam-sub002/invoke"
	"github.com/Esscrypt/peanutbutterandjam-sub002/pvm"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version information")
		programFile = flag.String("program", "", "path to a program blob")
		argumentHex = flag.String("argument", "", "hex-encoded argument blob")
		gasLimit    = flag.Uint64("gas", 1_000_000, "gas budget for run/debug modes")
		debugMode   = flag.Bool("debug", false, "enter the terminal debugger instead of running to completion")
		tuiMode     = flag.Bool("tui", false, "use the TUI debugger (implies -debug)")
		serve       = flag.Bool("serve", false, "start the inspection HTTP+WebSocket API instead of running a program")
		listenAddr  = flag.String("listen", "", "inspection API listen address (default from chainspec)")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("pvmctl %s (%s)\n", Version, Commit)
		return
	}

	cfg, err := chainspec.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "pvmctl: load chainspec: %v\n", err)
		os.Exit(1)
	}

	if *serve {
		addr := *listenAddr
		if addr == "" {
			addr = cfg.Inspect.ListenAddr
		}
		runServer(addr)
		return
	}

	if *programFile == "" {
		fmt.Fprintln(os.Stderr, "pvmctl: -program is required unless -serve is set")
		flag.Usage()
		os.Exit(2)
	}

	programBlob, err := os.ReadFile(*programFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pvmctl: read program: %v\n", err)
		os.Exit(1)
	}

	var argument []byte
	if *argumentHex != "" {
		argument, err = hex.DecodeString(*argumentHex)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pvmctl: decode argument: %v\n", err)
			os.Exit(1)
		}
	}

	y, err := invoke.Y(programBlob, argument)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pvmctl: initialize program: %v\n", err)
		os.Exit(1)
	}

	core := pvm.NewCore(y.Program, y.Registers, y.RAM, *gasLimit, pvm.PerInstructionGasModel{}, pvm.DefaultRegistry())
	core.HeapBreak, core.HeapMax = y.HeapBreak, y.HeapMax

	if *debugMode || *tuiMode {
		dbg := debugger.NewDebugger(core)
		if *tuiMode {
			err = debugger.RunTUI(dbg)
		} else {
			err = debugger.RunCLI(dbg)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "pvmctl: debugger: %v\n", err)
			os.Exit(1)
		}
		return
	}

	runProgram(core)
}

func runProgram(core *pvm.Core) {
	machine := pvm.NewMachine[struct{}](core, inertMutator, struct{}{})
	out := machine.Run()

	fmt.Printf("result: %s\n", out.Code)
	fmt.Printf("pc: 0x%016X\n", core.PC)
	fmt.Printf("gas remaining: %d\n", core.Gas)
	for i := 0; i < pvm.NumRegisters; i++ {
		fmt.Printf("r%-2d = 0x%016X\n", i, core.Regs.Get(i))
	}

	if out.Code == pvm.ResultFault {
		fmt.Printf("fault address: 0x%08X\n", out.FaultAddr)
		os.Exit(1)
	}
	if out.Code == pvm.ResultPanic {
		os.Exit(1)
	}
}

// inertMutator answers every host call with WHAT: a bare "run" invocation
// has no Refine/Accumulate context, matching the debugger's bare-session
// mutator.
func inertMutator(_ uint64, core *pvm.Core, ctx struct{}) (pvm.MutatorOutcome, struct{}) {
	core.Regs.Set(hostcall.ReturnCodeReg, hostcall.What)
	return pvm.ContinueRunning(), ctx
}

func runServer(addr string) {
	server := inspect.NewServer(addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() { errChan <- server.Start() }()

	select {
	case err := <-errChan:
		if err != nil {
			fmt.Fprintf(os.Stderr, "pvmctl: server: %v\n", err)
			os.Exit(1)
		}
	case <-sigChan:
		fmt.Println("\npvmctl: shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "pvmctl: shutdown: %v\n", err)
			os.Exit(1)
		}
	}
}
