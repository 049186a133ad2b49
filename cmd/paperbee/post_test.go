// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostHelpDocumentsExitStatus(t *testing.T) {
	assert.Contains(t, postCmd.Long, "Exit status:")
	assert.Contains(t, postCmd.Long, "any sink (sheet or chat channel)\nfailed")
}

func TestPostFlags(t *testing.T) {
	for _, name := range []string{"since", "interactive", "report"} {
		assert.NotNil(t, postCmd.Flags().Lookup(name), name)
	}
	since, err := postCmd.Flags().GetInt("since")
	assert.NoError(t, err)
	assert.Equal(t, 1, since)
}
