/*
 * Ember VM - an embryonic Java virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Ember VM loads a .jar or .class file named on the command line, parses
// every class it finds, and reports what it loaded. It is not a
// conforming JVM -- see DESIGN.md for what's deliberately out of scope.
package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/embervm/ember/src/classfile"
	"github.com/embervm/ember/src/config"
	"github.com/embervm/ember/src/trace"
	"github.com/embervm/ember/src/zipfile"
)

var traceLevelName string

var rootCmd = &cobra.Command{
	Use:   "ember [path]",
	Short: "Load and parse a Java class file or JAR archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config.Get().TraceLevel = parseTraceLevel(traceLevelName)
		trace.SetLevel(config.Get().TraceLevel)
		return run(args[0])
	},
}

func init() {
	rootCmd.Flags().StringVar(&traceLevelName, "trace", "INFO", "trace verbosity: SEVERE|WARNING|INFO|FINE|FINEST")
}

func parseTraceLevel(name string) trace.Level {
	switch name {
	case "SEVERE":
		return trace.SEVERE
	case "WARNING":
		return trace.WARNING
	case "FINE":
		return trace.FINE
	case "FINEST":
		return trace.FINEST
	default:
		return trace.INFO
	}
}

// run acquires path, sniffs whether it's a JAR or a bare class file, parses
// every class it contains, and prints a summary line followed by one line
// per parsed class -- the CLI
// contract's whole job, per spec.md's "one positional argument" interface.
func run(path string) error {
	config.Get().StartingPath = path

	acquired, err := zipfile.Acquire(path)
	if err != nil {
		trace.Error(trace.Loader, err.Error())
		return err
	}
	defer acquired.Close()

	var classes []*classfile.Class
	bytesInflated := 0

	switch acquired.Kind {
	case zipfile.KindJar:
		entries, err := zipfile.WalkClassEntries(acquired.Data)
		if err != nil {
			trace.Error(trace.Loader, err.Error())
			return err
		}
		for _, e := range entries {
			bytesInflated += len(e.Data)
			c, err := classfile.ParseClass(e.Data)
			if err != nil {
				trace.Error(trace.Parser, fmt.Sprintf("%s: %v", e.Name, err))
				continue
			}
			classes = append(classes, c)
		}

	case zipfile.KindClass:
		bytesInflated = len(acquired.Data)
		c, err := classfile.ParseClass(acquired.Data)
		if err != nil {
			trace.Error(trace.Parser, err.Error())
			return err
		}
		classes = append(classes, c)
	}

	fmt.Printf("ember: loaded %d class(es), %s\n", len(classes), humanize.Bytes(uint64(bytesInflated)))
	for _, c := range classes {
		fmt.Printf("  %s (super=%q, %d methods)\n", c.Name, c.Super, len(c.Methods))
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
