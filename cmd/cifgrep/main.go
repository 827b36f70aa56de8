// cifgrep - search for a tag in CIF files
//
// Usage:
//
//	cifgrep [options] TAG FILE_OR_DIR...
//
// Directories are walked recursively for .cif and .cif.gz files.
// A file argument of "-" reads from stdin.
package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	cif "github.com/ciflang/go"
	"github.com/urfave/cli/v2"
)

type options struct {
	maxCount     int
	withFilename bool
	noBlockname  bool
	withTag      bool
	filesWith    bool
	filesWithout bool
	count        bool
	summarize    bool
}

func main() {
	app := &cli.App{
		Name:      "cifgrep",
		Usage:     "search for TAG in CIF files",
		ArgsUsage: "TAG FILE_OR_DIR...",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "max-count", Aliases: []string{"m"}, Value: 10, Usage: "print max `NUM` values per block"},
			&cli.BoolFlag{Name: "with-filename", Aliases: []string{"H"}, Usage: "print the file name for each match"},
			&cli.BoolFlag{Name: "no-blockname", Aliases: []string{"b"}, Usage: "suppress the block name on output"},
			&cli.BoolFlag{Name: "with-tag", Aliases: []string{"t"}, Usage: "print the tag name for each match"},
			&cli.BoolFlag{Name: "files-with-tag", Aliases: []string{"l"}, Usage: "print only names of files with the tag"},
			&cli.BoolFlag{Name: "files-without-tag", Aliases: []string{"L"}, Usage: "print only names of files without the tag"},
			&cli.BoolFlag{Name: "count", Aliases: []string{"c"}, Usage: "print only a count of matches per block"},
			&cli.BoolFlag{Name: "summarize", Aliases: []string{"s"}, Usage: "display only statistics"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowAppHelp(c)
		return cli.Exit("", 1)
	}
	o := options{
		maxCount:     c.Int("max-count"),
		withFilename: c.Bool("with-filename"),
		noBlockname:  c.Bool("no-blockname"),
		withTag:      c.Bool("with-tag"),
		filesWith:    c.Bool("files-with-tag"),
		filesWithout: c.Bool("files-without-tag"),
		count:        c.Bool("count"),
		summarize:    c.Bool("summarize"),
	}
	exclusive := 0
	for _, f := range []bool{o.filesWith, o.filesWithout, o.count, o.summarize} {
		if f {
			exclusive++
		}
	}
	if exclusive > 1 {
		return cli.Exit("cifgrep: -l, -L, -c and -s are mutually exclusive", 1)
	}

	tag := c.Args().First()
	totalMatches := 0
	matchingFiles := 0
	totalFiles := 0
	failed := false

	for _, path := range c.Args().Tail() {
		for _, file := range expand(path) {
			totalFiles++
			matches, err := grepFile(tag, file, o)
			if err != nil {
				fmt.Fprintf(os.Stderr, "cifgrep: %s: %v\n", file, err)
				failed = true
				continue
			}
			totalMatches += matches
			if matches > 0 {
				matchingFiles++
			}
			if o.filesWith && matches > 0 {
				fmt.Println(file)
			}
			if o.filesWithout && matches == 0 {
				fmt.Println(file)
			}
		}
	}

	if o.summarize {
		fmt.Printf("%d matches in %d of %d files\n", totalMatches, matchingFiles, totalFiles)
	}
	if failed {
		return cli.Exit("", 1)
	}
	return nil
}

// expand resolves a path argument to the files it names: the path
// itself, or every .cif/.cif.gz under it when it is a directory.
func expand(path string) []string {
	if path == "-" {
		return []string{path}
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return []string{path}
	}
	var files []string
	filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if strings.HasSuffix(p, ".cif") || strings.HasSuffix(p, ".cif.gz") {
			files = append(files, p)
		}
		return nil
	})
	return files
}

func grepFile(tag, path string, o options) (int, error) {
	var data []byte
	var err error
	name := path
	if path == "-" {
		name = "stdin"
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = cif.LoadFile(path)
	}
	if err != nil {
		return 0, err
	}

	var emitter cif.Emitter
	switch {
	case o.filesWith || o.filesWithout || o.summarize:
		emitter = cif.NopEmitter{}
	case o.count:
		emitter = &cif.CountEmitter{
			W:             os.Stdout,
			Path:          name,
			WithFilename:  o.withFilename,
			WithBlockName: !o.noBlockname,
		}
	default:
		emitter = &cif.PrintEmitter{
			W:             os.Stdout,
			Path:          name,
			WithFilename:  o.withFilename,
			WithBlockName: !o.noBlockname,
			WithTag:       o.withTag,
			MaxCount:      o.maxCount,
		}
	}

	searcher := cif.NewSearcher(tag, emitter)
	if err := cif.NewParser().Parse(name, data, searcher); err != nil {
		return 0, err
	}
	return searcher.Matches, nil
}
