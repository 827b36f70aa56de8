// cifddl - validate CIF files against a DDL1 or DDL2 dictionary
//
// Usage:
//
//	cifddl [options] DICT FILE...
//
// Prints one line per validation failure. A malformed file is reported
// and the remaining files are still processed. Exit status is 1 when
// any failure or error occurred.
package main

import (
	"fmt"
	"os"
	"strings"

	cif "github.com/ciflang/go"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:      "cifddl",
		Usage:     "validate CIF files against a dictionary",
		ArgsUsage: "DICT FILE...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "unknown", Aliases: []string{"u"}, Usage: "also list tags missing from the dictionary"},
			&cli.BoolFlag{Name: "no-audit", Usage: "skip the _audit_conform dictionary name/version check"},
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

	dict, err := cif.LoadDDL(c.Args().First())
	if err != nil {
		return cli.Exit(fmt.Sprintf("cifddl: %v", err), 1)
	}

	failed := false
	for _, path := range c.Args().Tail() {
		failures, err := validateFile(dict, path, c.Bool("unknown"), !c.Bool("no-audit"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "cifddl: %s: %v\n", path, err)
			failed = true
			continue
		}
		if failures > 0 {
			failed = true
		}
	}
	if failed {
		return cli.Exit("", 1)
	}
	return nil
}

func validateFile(dict *cif.DDL, path string, showUnknown, audit bool) (int, error) {
	doc, err := cif.ReadAny(path)
	if err != nil {
		return 0, err
	}

	failures := 0
	if audit {
		if msg, ok := dict.CheckAuditConform(doc); !ok {
			failures++
			fmt.Printf("%s: %s\n", path, msg)
		}
	}

	var unknownTags []string
	var collect func(string)
	if showUnknown {
		collect = func(tag string) { unknownTags = append(unknownTags, tag) }
	}
	dict.Validate(doc, func(f cif.Failure) {
		failures++
		fmt.Printf("%s: [%s] %s\n", path, f.Block.Name, f.Msg)
	}, collect)

	if showUnknown && len(unknownTags) > 0 {
		fmt.Printf("%s: tags not in the dictionary: %s\n", path, strings.Join(unknownTags, " "))
	}
	return failures, nil
}
