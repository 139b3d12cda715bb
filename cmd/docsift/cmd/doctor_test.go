package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorCmd_Ready(t *testing.T) {
	// Given: a fresh document root
	root := newDocRoot(t)

	// When: running the checks
	out, err := execute(t, "doctor", root)

	// Then: every required check passes
	require.NoError(t, err)
	assert.Contains(t, out, "docsift system check")
	assert.Contains(t, out, "[PASS] document_root")
	assert.Contains(t, out, "[PASS] store: sqlite, 0 documents")
}

func TestDoctorCmd_JSON(t *testing.T) {
	root := newDocRoot(t)
	_, err := execute(t, "index", root, "--json")
	require.NoError(t, err)

	out, err := execute(t, "doctor", root, "--json")
	require.NoError(t, err)

	var report struct {
		Status string `json:"status"`
		Checks []struct {
			Name    string `json:"name"`
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.NotEqual(t, "failed", report.Status)

	last := report.Checks[len(report.Checks)-1]
	assert.Equal(t, "store", last.Name)
	assert.Equal(t, "PASS", last.Status)
	assert.Equal(t, "sqlite, 2 documents", last.Message)
}
