package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/k0kubun/pp/v3"

	"github.com/hexaflex/dcpu/asm"
	"github.com/hexaflex/dcpu/asm/image"
	"github.com/hexaflex/dcpu/asm/parser"
	"github.com/hexaflex/dcpu/translate"
)

func main() {
	config := parseArgs()

	if config.DumpAST {
		check(dumpAST(config))
		return
	}

	img, err := build(config)
	check(err)

	if config.Listing {
		fmt.Print(img.String())
	}

	if config.Print {
		check(img.Dump(os.Stdout))
	}

	if config.Output != "" {
		check(save(config, img))
	}
}

// dumpAST parses the input file and prints the unprocessed AST.
func dumpAST(c *Config) error {
	fd, err := os.Open(c.Input)
	if err != nil {
		return err
	}
	defer fd.Close()

	ast, err := parser.Parse(fd, c.Input)
	if err != nil {
		return err
	}

	_, err = pp.Println(ast)
	return err
}

// build assembles the input file. All paths are resolved against the
// file system root, so includes can live anywhere.
func build(c *Config) (*image.Image, error) {
	includes := make([]string, len(c.Includes))
	for i, inc := range c.Includes {
		p, err := rootPath(inc)
		if err != nil {
			return nil, err
		}
		includes[i] = p
	}

	input, err := rootPath(c.Input)
	if err != nil {
		return nil, err
	}

	a := asm.Assembler{
		Files:    os.DirFS("/"),
		Includes: includes,
		Origin:   c.Origin,
		Verbose:  c.Verbose,
	}

	return a.AssembleFile(input)
}

// save writes the program to the requested output location.
func save(c *Config, img *image.Image) error {
	w, close, err := makeWriter(c)
	if err != nil {
		return err
	}
	defer close()

	return img.Save(w)
}

// makeWriter creates an output writer and a cleanup function for it.
func makeWriter(c *Config) (io.Writer, func(), error) {
	if c.Output == "-" {
		return os.Stdout, func() {}, nil
	}

	dir, _ := filepath.Split(c.Output)
	if len(dir) > 0 {
		if err := os.MkdirAll(dir, 0744); err != nil {
			return nil, nil, translate.Wrap(err, "output directory")
		}
	}

	fd, err := os.Create(c.Output)
	if err != nil {
		return nil, nil, translate.Wrap(err, "output file")
	}

	return fd, func() { fd.Close() }, nil
}

// rootPath returns the absolute path p as a path into the "/" file system.
func rootPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", translate.Wrap(err, "%s", p)
	}

	abs = filepath.ToSlash(strings.TrimPrefix(abs, filepath.VolumeName(abs)))
	return strings.TrimPrefix(abs, "/"), nil
}

func check(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
