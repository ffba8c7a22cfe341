package main

import (
	"bytes"
	"testing"

	"github.com/pixelmuse/server/internal/module/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCostCommand(t *testing.T) {
	out, err := run("cost", "nano-banana-pro", "4k", "image-to-image", "3")
	require.NoError(t, err)
	assert.Equal(t, "18\n", out)

	out, err = run("cost", "nano-banana", "1K", "text-to-image")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	out, err = run("cost", "--normalize", "nano-banana", "4k", "image-to-image", "2")
	require.NoError(t, err)
	assert.Equal(t, "4\n", out)
}

func TestCostCommand_Errors(t *testing.T) {
	_, err := run("cost", "nano-banana", "4k", "text-to-image")
	assert.ErrorIs(t, err, pricing.ErrInvalidCombination)

	_, err = run("cost", "nano-banana", "1k", "text-to-image", "0")
	assert.ErrorIs(t, err, pricing.ErrInvalidBatchCount)

	_, err = run("cost", "nano-banana", "1k", "text-to-image", "two")
	assert.Error(t, err)

	_, err = run("cost", "nano-banana")
	assert.Error(t, err)
}

func TestSweepCommand_ConfigError(t *testing.T) {
	_, err := run("sweep", "--config", "/nonexistent/config.yaml")
	assert.ErrorContains(t, err, "read config")
}
