package main

import (
	"flag"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movieslicer/pkg/config"
)

func TestOptions_Apply(t *testing.T) {
	fs := flag.NewFlagSet("reslice", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	opts := newOptions(fs)
	require.NoError(t, fs.Parse([]string{"-workers", "3", "-dx", "4", "-layout", "combined"}))

	cfg := config.DefaultConfig()
	cfg.Reslice.Order = "numeric"
	opts.apply(cfg, fs)

	assert.Equal(t, 3, cfg.Processing.NumCores)
	assert.Equal(t, 4, cfg.Reslice.Stride)
	assert.Equal(t, "combined", cfg.Reslice.Layout)
	// unset flags leave the config alone
	assert.Equal(t, "numeric", cfg.Reslice.Order)
	assert.NoError(t, cfg.Validate())
}

func TestOptions_NoCoresFlag(t *testing.T) {
	fs := flag.NewFlagSet("reslice", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	newOptions(fs)

	assert.Nil(t, fs.Lookup("cores"))
	assert.Error(t, fs.Parse([]string{"-cores", "2"}))
}
