package sessionlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFilename(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		typ     SessionType
		want    string
		wantErr bool
	}{
		{"main", "k2x9qa-07fmzp-w3r8dd", TypeMain, "k2x9qa-07fmzp-w3r8dd.jsonl", false},
		{"subagent", "k2x9qa-07fmzp-w3r8dd", TypeSubagent, "subagent-k2x9qa-07fmzp-w3r8dd.jsonl", false},
		{"empty id", "", TypeMain, "", true},
		{"uppercase id", "ABC", TypeMain, "", true},
		{"path traversal", "../etc/passwd", TypeMain, "", true},
		{"reserved prefix", "subagent-abc", TypeMain, "", true},
		{"unknown type", "abc123", SessionType("weird"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateFilename(tt.id, tt.typ)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateFilename_InvalidIDError(t *testing.T) {
	_, err := GenerateFilename("not/valid", TypeMain)
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestParseFilename_RoundTrip(t *testing.T) {
	ids := []string{"abc123", "k2x9qa-07fmzp-w3r8dd", "a-b-c"}
	types := []SessionType{TypeMain, TypeSubagent}

	for _, id := range ids {
		for _, typ := range types {
			name, err := GenerateFilename(id, typ)
			require.NoError(t, err)

			gotID, gotType, ok := ParseFilename(name)
			require.True(t, ok, "generated filename should parse: %s", name)
			assert.Equal(t, id, gotID)
			assert.Equal(t, typ, gotType)
		}
	}
}

func TestParseFilename_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		filename string
	}{
		{"no extension", "abc123"},
		{"wrong extension", "abc123.json"},
		{"empty id", ".jsonl"},
		{"bare subagent prefix", "subagent-.jsonl"},
		{"uppercase", "ABC.jsonl"},
		{"marker file", "workdir"},
		{"temp file", "abc123.jsonl.tmp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, ok := ParseFilename(tt.filename)
			assert.False(t, ok)
			assert.False(t, IsValidFilename(tt.filename))
		})
	}
}

func TestIsValidFilename(t *testing.T) {
	assert.True(t, IsValidFilename("abc123.jsonl"))
	assert.True(t, IsValidFilename("subagent-abc123.jsonl"))
	assert.False(t, IsValidFilename("nope"))
}
