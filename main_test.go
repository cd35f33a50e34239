package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodMac/arch-depends/cache"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	af = analyzeFlags{}
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestMain_Integration(t *testing.T) {
	src := t.TempDir()
	files := map[string]string{
		"com/app/Main.java":    "package com.app;\n\npublic class Main {\n    public static void main(String[] args) {\n        new Service().run();\n    }\n}\n",
		"com/app/Service.java": "package com.app;\n\npublic class Service {\n    public void run() {}\n}\n",
	}
	for name, body := range files {
		path := filepath.Join(src, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	}
	outDir := t.TempDir()

	out := execute(t, "analyze", src, "--out", outDir, "--format", "mermaid", "--granularity", "type", "--log-level", "error")
	assert.Contains(t, out, filepath.Join(outDir, "visualization.html"))
	assert.FileExists(t, filepath.Join(outDir, "visualization.html"))
	assert.FileExists(t, filepath.Join(outDir, "report.yaml"))

	html, err := os.ReadFile(filepath.Join(outDir, "visualization.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "-->")

	// 第二次运行命中持久化缓存
	execute(t, "analyze", src, "--out", outDir, "--format", "jsonl", "--log-level", "error")
	assert.FileExists(t, filepath.Join(outDir, "relation.jsonl"))

	dbPath := filepath.Join(src, ".arch-depends", "cache.db")
	store, err := cache.OpenSQLite(dbPath)
	require.NoError(t, err)
	n, err := store.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, store.Close())

	out = execute(t, "cache", "clear", src)
	assert.Contains(t, out, "removed 2 entries")
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version")
	assert.Contains(t, out, "arch-depends "+version)
}
