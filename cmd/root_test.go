package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootRegistersCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ingest", "delete", "extract", "batch", "records", "serve", "kb"} {
		assert.True(t, names[want], "command %q not registered", want)
	}
}

func TestRootHasSchemaDirFlag(t *testing.T) {
	f := rootCmd.PersistentFlags().Lookup("schema-dir")
	assert.NotNil(t, f)
}
