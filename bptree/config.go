package bptree

import (
	"encoding/binary"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Comparator orders two fixed-width keys the way bytes.Compare does.
type Comparator func(a, b []byte) int

// Default key/value widths used by New, for callers that don't need
// anything other than fixed 8-byte keys/values.
const (
	DefaultKeySize   = 8
	DefaultValueSize = 8
)

// Config carries the parameters needed to construct a Tree: fan-out
// bounds, key/value widths, and the named comparator to use. It is
// loadable from YAML via LoadConfig so a harness can describe a tree
// declaratively instead of hard-coding numbers.
type Config struct {
	LeafMaxSize     int    `yaml:"leaf_max_size"`
	InternalMaxSize int    `yaml:"internal_max_size"`
	KeySize         int    `yaml:"key_size"`
	ValueSize       int    `yaml:"value_size"`
	Comparator      string `yaml:"comparator"`
}

// LoadConfig decodes a YAML document into a Config, filling in the
// default key/value widths when the document omits them.
func LoadConfig(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("bptree: decode config: %w", err)
	}
	if cfg.KeySize == 0 {
		cfg.KeySize = DefaultKeySize
	}
	if cfg.ValueSize == 0 {
		cfg.ValueSize = DefaultValueSize
	}
	return cfg, nil
}

// ComparatorByName resolves one of the named comparators a Config.Comparator
// field may reference.
func ComparatorByName(name string) (Comparator, error) {
	switch name {
	case "", "bytes":
		return CompareBytes, nil
	case "uint64":
		return CompareUint64, nil
	case "int64":
		return CompareInt64, nil
	default:
		return nil, fmt.Errorf("bptree: unknown comparator %q", name)
	}
}

// CompareBytes orders keys lexicographically, treating them as opaque
// byte strings.
func CompareBytes(a, b []byte) int {
	switch {
	case string(a) < string(b):
		return -1
	case string(a) > string(b):
		return 1
	default:
		return 0
	}
}

// CompareUint64 decodes both keys as little-endian uint64 and compares
// numerically.
func CompareUint64(a, b []byte) int {
	x := binary.LittleEndian.Uint64(a)
	y := binary.LittleEndian.Uint64(b)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// CompareInt64 decodes both keys as little-endian int64 and compares
// numerically.
func CompareInt64(a, b []byte) int {
	x := int64(binary.LittleEndian.Uint64(a))
	y := int64(binary.LittleEndian.Uint64(b))
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}
