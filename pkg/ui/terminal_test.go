package ui

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	SetOutput(&stdout, &stderr)
	t.Cleanup(func() {
		SetOutput(os.Stdout, os.Stderr)
		SetQuietMode(false)
	})
	return &stdout, &stderr
}

func TestPrintFunctions(t *testing.T) {
	stdout, stderr := captureOutput(t)

	PrintSuccess("saved")
	PrintInfo("Post", "C0dE123")
	PrintWarning("slow down", "429")
	PrintHighlight("done")
	PrintError("failed", "boom")

	assert.Contains(t, stdout.String(), "saved")
	assert.Contains(t, stdout.String(), "Post")
	assert.Contains(t, stdout.String(), "C0dE123")
	assert.Contains(t, stdout.String(), "slow down: 429")
	assert.Contains(t, stdout.String(), "done")
	assert.Contains(t, stderr.String(), "failed: boom")
	assert.NotContains(t, stdout.String(), "failed")
}

func TestQuietMode(t *testing.T) {
	stdout, stderr := captureOutput(t)
	SetQuietMode(true)

	assert.True(t, IsQuietMode())
	PrintSuccess("hidden")
	PrintPass(1, 3, 10, 2, 12)
	PrintBanner()
	PrintError("still shown")

	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "still shown")
}

func TestPrintPass(t *testing.T) {
	stdout, _ := captureOutput(t)

	PrintPass(2, 10, 50, 7, 120)
	assert.Contains(t, stdout.String(), "[2/10]")
	assert.Contains(t, stdout.String(), "+7 new")
	assert.Contains(t, stdout.String(), "total 120")
}
