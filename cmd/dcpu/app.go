package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/k0kubun/pp/v3"

	"github.com/hexaflex/dcpu/asm"
	"github.com/hexaflex/dcpu/asm/image"
	"github.com/hexaflex/dcpu/cpu"
	"github.com/hexaflex/dcpu/devices/clock"
	"github.com/hexaflex/dcpu/devices/keyboard"
	"github.com/hexaflex/dcpu/devices/monitor"
	"github.com/hexaflex/dcpu/translate"
)

// App defines application context.
type App struct {
	config   *Config               // Application configuration.
	cpu      *CPUController        // VM with program to be run.
	display  *monitor.Device       // Virtual display peripheral.
	keyboard *keyboard.Device      // Virtual keyboard peripheral.
	clock    *clock.Device         // Virtual clock peripheral.
	listing  map[uint16]image.Line // Source context per address, for programs built from source.
}

// NewApp creates a new application instance using the given configuration.
func NewApp(config *Config) *App {
	var a App
	a.config = config
	a.display = monitor.New()
	a.keyboard = keyboard.New()
	a.clock = clock.New()
	a.cpu = NewCPUController(a.printTrace, config.Seed, a.display, a.keyboard, a.clock)
	a.cpu.OnMemoryChange(a.display.Watch)
	return &a
}

// Run loads the program and runs it until the machine halts or the
// step limit is reached.
func (a *App) Run() error {
	log.Println(Version())

	if err := a.loadProgram(); err != nil {
		return err
	}

	a.keyboard.Type(a.config.Keys)
	a.cpu.Run(a.config.MaxSteps)

	state := a.cpu.State()
	log.Printf("%d steps, %d cycles, %s", state.Steps, state.Cycles, prettyFrequency(a.cpu.Frequency()))

	switch {
	case state.OnFire:
		log.Printf("machine caught fire; pc=%04x", state.Registers["PC"])
	case state.Halted:
		log.Printf("halted at %04x", state.Registers["PC"])
	default:
		log.Printf("step limit reached at %04x", state.Registers["PC"])
	}

	if a.config.Screen {
		if a.display.Connected() {
			fmt.Println(a.display)
		} else {
			log.Println("monitor is not connected")
		}
	}

	if a.config.Dump {
		pp.Println(state)
	}

	return nil
}

// loadProgram loads the program from disk and resets the cpu. Files
// ending in .dasm are assembled first.
func (a *App) loadProgram() error {
	log.Println("loading", a.config.Program)

	if strings.EqualFold(filepath.Ext(a.config.Program), ".dasm") {
		img, err := a.assemble()
		if err != nil {
			return err
		}
		return a.cpu.Load(img.Words, a.config.Offset)
	}

	fd, err := os.Open(a.config.Program)
	if err != nil {
		return translate.Wrap(err, "load program")
	}

	defer fd.Close()

	img := image.New()
	if err = img.Load(fd); err != nil {
		return translate.Wrap(err, "load program %s", a.config.Program)
	}

	return a.cpu.Load(img.Words, a.config.Offset)
}

// assemble builds the source program. Includes are resolved relative
// to the directory holding it.
func (a *App) assemble() (*image.Image, error) {
	dir, name := filepath.Split(a.config.Program)
	if len(dir) == 0 {
		dir = "."
	}

	b := asm.Assembler{
		Files:  os.DirFS(dir),
		Origin: a.config.Offset,
	}

	img, err := b.AssembleFile(name)
	if err != nil {
		return nil, err
	}

	a.listing = make(map[uint16]image.Line, len(img.Listing))
	for _, ln := range img.Listing {
		a.listing[ln.Address] = ln
	}

	return img, nil
}

// printTrace prints instruction trace data, with source context if it
// is available.
func (a *App) printTrace(i *cpu.Instruction) {
	if !a.config.PrintTrace {
		return
	}

	var sb strings.Builder
	sb.Grow(80)

	fmt.Fprintf(&sb, "%04x  %s", i.PC, i.Instruction)

	if ln, ok := a.listing[i.PC]; ok {
		pad(&sb, 36)
		fmt.Fprintf(&sb, " ; %s", ln.Pos)
	}

	fmt.Println(sb.String())
}

// pad padds sb with spaces until it reaches the given size.
func pad(sb *strings.Builder, size int) {
	if n := size - sb.Len(); n > 0 {
		sb.WriteString(strings.Repeat(" ", n))
	}
}

func prettyFrequency(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.2f GHz", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2f MHz", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.2f KHz", v/1e3)
	default:
		return fmt.Sprintf("%.2f Hz", v)
	}
}
