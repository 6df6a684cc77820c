package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/hexaflex/dcpu/translate"
)

// Config defines program configuration.
type Config struct {
	Includes []string // Include search paths.
	Input    string   // Input source file to build.
	Output   string   // Path to store output in.
	Origin   uint16   // Address the program is assembled for.
	DumpAST  bool     // Print a dump of the unprocessed AST and exit.
	Listing  bool     // Print the program listing.
	Print    bool     // Print a hex dump of the program.
	Verbose  bool     // Log include resolution.
}

// parseArgs parses command line arguments as applicable.
//
// If an error occurred, this exits the program with an appropriate message.
// When version information is requested, it is printed to stdout and the program ends cleanly.
func parseArgs() *Config {
	var c Config
	c.Output = "out.bin"

	flag.Usage = func() {
		fmt.Printf("%s [options] <input source file>\n", os.Args[0])
		flag.PrintDefaults()
	}

	includes := flag.String("include", "", "Colon-separated list of include search paths.")
	origin := flag.Uint("origin", 0, "Address of the first program word.")
	flag.StringVar(&c.Output, "out", c.Output, "Output file. Empty to skip writing the program.")
	flag.BoolVar(&c.DumpAST, "dump-ast", c.DumpAST, "Print a human-readable version of the unprocessed AST to stdout.")
	flag.BoolVar(&c.Listing, "listing", c.Listing, "Print the program listing to stdout.")
	flag.BoolVar(&c.Print, "print", c.Print, "Print a hex dump of the program to stdout.")
	flag.BoolVar(&c.Verbose, "v", c.Verbose, "Log include resolution.")
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

	if *origin > 0xffff {
		fmt.Fprintln(os.Stderr, translate.From("origin out of range: %d", *origin))
		os.Exit(1)
	}

	if len(*locale) > 0 {
		translate.SetLocales(*locale)
	}

	if len(*includes) > 0 {
		c.Includes = filteredSplit(*includes, ":")
	}

	c.Origin = uint16(*origin)
	c.Input = flag.Arg(0)
	return &c
}

// filteredSplit splits value by sep and returns the resulting list, minus empty entries.
func filteredSplit(value, sep string) []string {
	var out []string
	for _, v := range strings.Split(value, sep) {
		if v = strings.TrimSpace(v); len(v) > 0 {
			out = append(out, v)
		}
	}
	return out
}
