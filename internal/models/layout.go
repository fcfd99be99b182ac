package models

import (
	"fmt"
	"strings"
)

// Layout selects how resliced output is written
type Layout int

const (
	// PerSlice writes every resliced page into its own file
	PerSlice Layout = iota
	// Combined writes all resliced pages of one source as a single stack
	Combined
)

func (l Layout) String() string {
	switch l {
	case PerSlice:
		return "slices"
	case Combined:
		return "combined"
	}
	return "unknown"
}

// ParseLayout maps a configuration name onto a Layout
func ParseLayout(name string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "slices", "":
		return PerSlice, nil
	case "combined":
		return Combined, nil
	}
	return 0, fmt.Errorf("unknown layout %q (must be slices or combined)", name)
}

// Order selects the processing order of input files
type Order int

const (
	// Lexical processes files sorted by path
	Lexical Order = iota
	// Numeric processes files sorted by the number embedded in their name
	Numeric
)

func (o Order) String() string {
	switch o {
	case Lexical:
		return "lexical"
	case Numeric:
		return "numeric"
	}
	return "unknown"
}

// ParseOrder maps a configuration name onto an Order
func ParseOrder(name string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "lexical", "":
		return Lexical, nil
	case "numeric":
		return Numeric, nil
	}
	return 0, fmt.Errorf("unknown order %q (must be lexical or numeric)", name)
}
