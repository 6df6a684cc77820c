package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hexaflex/dcpu/translate"
)

// Config defines program configuration.
type Config struct {
	Program    string // Path to the program image or source file to load.
	Offset     uint16 // Address the program is loaded at; execution starts here.
	MaxSteps   int    // Stop after this many steps. 0 runs until the machine halts.
	Seed       int64  // Seed for the fault model. 0 picks one from the clock.
	Keys       string // Text typed on the keyboard before the program starts.
	PrintTrace bool   // Print instruction trace data?
	Screen     bool   // Print the monitor contents when done?
	Dump       bool   // Print the final machine state?
}

// parseArgs parses command line arguments as applicable.
//
// If an error occurred, this exits the program with an appropriate message.
// When version information is requested, it is printed to stdout and the program ends cleanly.
func parseArgs() *Config {
	var c Config
	c.MaxSteps = 1000000

	flag.Usage = func() {
		fmt.Printf("%s [options] <image or .dasm source file>\n", os.Args[0])
		flag.PrintDefaults()
	}

	offset := flag.Uint("offset", 0, "Load address of the program.")
	flag.IntVar(&c.MaxSteps, "max-steps", c.MaxSteps, "Maximum number of steps to run. 0 runs until the machine halts.")
	flag.Int64Var(&c.Seed, "seed", c.Seed, "Random seed for memory corruption while the machine is on fire.")
	flag.StringVar(&c.Keys, "keys", c.Keys, "Text to type on the keyboard.")
	flag.BoolVar(&c.PrintTrace, "trace", c.PrintTrace, "Print instruction trace data.")
	flag.BoolVar(&c.Screen, "screen", c.Screen, "Print the monitor contents when the program stops.")
	flag.BoolVar(&c.Dump, "dump", c.Dump, "Print the machine state when the program stops.")
	locale := flag.String("locale", "", "Language for messages. Defaults to the system locale.")
	version := flag.Bool("version", false, "Display version information.")
	flag.Parse()

	if *version {
		fmt.Println(Version())
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	if *offset > 0xffff {
		fmt.Fprintln(os.Stderr, translate.From("offset out of range: %d", *offset))
		os.Exit(1)
	}

	if len(*locale) > 0 {
		translate.SetLocales(*locale)
	}

	c.Offset = uint16(*offset)
	c.Program = flag.Arg(0)
	return &c
}
