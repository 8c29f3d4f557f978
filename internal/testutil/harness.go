// Package testutil provides shared helpers for package tests: a thread-safe
// log buffer, filesystem fixtures and a fake notebook executor so tests run
// without a jupyter installation.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chris-collard/fidle/internal/notebook"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// WriteFiles materializes a map of relative path -> content under root,
// creating intermediate directories.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// NotebookJSON builds a minimal two-cell notebook document for fixtures.
func NotebookJSON(markdownSource, codeSource string) string {
	return fmt.Sprintf(`{
 "cells": [
  {"cell_type": "markdown", "metadata": {}, "source": %q},
  {"cell_type": "code", "execution_count": null, "metadata": {}, "outputs": [], "source": %q}
 ],
 "metadata": {},
 "nbformat": 4,
 "nbformat_minor": 5
}`, markdownSource, codeSource)
}

// FakeExecutor implements notebook.Executor without running anything. It
// reads the source notebook back as the "executed" result and can be told
// to fail for specific sources.
type FakeExecutor struct {
	// FailOn lists source names whose execution fails.
	FailOn map[string]bool

	mu       sync.Mutex
	executed []string
}

// Execute implements notebook.Executor.
func (e *FakeExecutor) Execute(ctx context.Context, dir, src string) (*notebook.Notebook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.executed = append(e.executed, filepath.Join(dir, src))
	e.mu.Unlock()

	if e.FailOn[src] {
		return nil, fmt.Errorf("%w: %s: cell raised", notebook.ErrExecution, src)
	}
	return notebook.Read(filepath.Join(dir, src))
}

// Executed returns the dir/src paths that were executed, in order.
func (e *FakeExecutor) Executed() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.executed...)
}
