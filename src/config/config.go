/*
 * Ember VM - an embryonic Java virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package config holds the small amount of VM-wide state the other
// components consult, the same role the teacher's jacobin/globals package
// plays -- a single place for the handful of knobs the loader, parser and
// interpreter all need, rather than threading them through every call.
package config

import "github.com/embervm/ember/src/trace"

// MaxSupportedMajorVersion is the highest class-file major version this VM
// is tested against. Java 17 class files carry major version 61. A class
// file above this version is logged and parsed anyway unless StrictJDK
// rejects it outright.
const MaxSupportedMajorVersion = 61

// Global holds the VM's ambient configuration. A single instance is
// installed at startup and referenced by every component.
type Global struct {
	// StartingPath is the .jar or .class file named on the command line.
	StartingPath string

	// TraceLevel is the verbosity passed to the trace package at startup.
	TraceLevel trace.Level

	// StrictJDK causes class-file major versions beyond
	// MaxSupportedMajorVersion to be rejected rather than merely logged.
	StrictJDK bool
}

var current = &Global{TraceLevel: trace.INFO}

// Get returns the process-wide configuration.
func Get() *Global {
	return current
}

// Reset restores default configuration; used by tests that don't want
// state leaking across test functions.
func Reset() {
	current = &Global{TraceLevel: trace.INFO}
}
