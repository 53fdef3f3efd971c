// Package config loads an optional override file for backend hosts/ports,
// DNS overrides, the default connect/read timeout, and the log level.
// Ships with compiled-in defaults (bfconst.BadCompany2, etc.), so the file
// itself is optional: a caller that never loads one still gets working
// defaults, matching bfconst's "large static data is data, not config" and
// the config package's "config is data, not a required code path" stance.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"

	"github.com/gravwell/gcfg"
)

const maxConfigSize int64 = 1 << 20 // 1MB is already generous for this file

var (
	ErrConfigFileTooLarge = errors.New("config file is too large")
	ErrFailedFileRead     = errors.New("failed to read entire config file")
)

// Backend holds one platform's FESL host/port/client string override as
// read from the file. This package only parses it; nothing here merges it
// onto, or falls back to, the compiled-in bfconst tables.
type Backend struct {
	Host         string
	Port         int
	ClientString string
}

// DNSOverride pins one backend hostname to a fixed IP.
type DNSOverride struct {
	IP string
}

// Overrides is the gcfg-mapped override file shape. Every section is
// optional; a caller loads a file, then merges non-zero fields onto the
// compiled-in bfconst tables before constructing a client. DNS overrides
// are a map of named subsections (one per hostname), not a flat
// key-value section: gcfg has no built-in support for importing an
// arbitrary flat map of scalars into a struct field (the teacher's
// config/loader.go only gets that via its own hand-rolled VariableConfig/
// Idxer machinery), and named subsections are the shape gcfg does support
// natively.
type Overrides struct {
	Global struct {
		// Timeout is the default connect/read timeout, e.g. "5s".
		Timeout string
		// LogLevel is a log level name such as "info", kept as the raw
		// string; it is not converted to a gwlog.Level here.
		LogLevel string
	}
	Backend map[string]*Backend
	DNS     map[string]*DNSOverride
}

// Timeout parses Global.Timeout, returning fallback if unset or invalid.
func (o *Overrides) Timeout(fallback time.Duration) time.Duration {
	if o == nil || o.Global.Timeout == "" {
		return fallback
	}
	d, err := time.ParseDuration(o.Global.Timeout)
	if err != nil {
		return fallback
	}
	return d
}

// LoadFile opens path, enforces a size ceiling, and parses its contents.
func LoadFile(path string) (*Overrides, error) {
	fin, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fin.Close()

	fi, err := fin.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Size() > maxConfigSize {
		return nil, ErrConfigFileTooLarge
	}

	bb := bytes.NewBuffer(nil)
	n, err := io.Copy(bb, fin)
	if err != nil {
		return nil, err
	}
	if n != fi.Size() {
		return nil, ErrFailedFileRead
	}
	return LoadBytes(bb.Bytes())
}

// LoadBytes parses b as a gcfg-format override file.
func LoadBytes(b []byte) (*Overrides, error) {
	if int64(len(b)) > maxConfigSize {
		return nil, ErrConfigFileTooLarge
	}
	var o Overrides
	if err := gcfg.ReadStringInto(&o, string(b)); err != nil {
		return nil, err
	}
	return &o, nil
}
