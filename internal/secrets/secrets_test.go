// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  Secrets
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, GroqAPIKey, "  gsk_abc123  \n")
				writeFile(t, dir, ResendAPIKey, "re_xyz789")
				writeFile(t, dir, QdrantAPIKey, "qd-key\n")
				return dir
			},
			want: Secrets{
				GroqAPIKey:   "gsk_abc123",
				ResendAPIKey: "re_xyz789",
				QdrantAPIKey: "qd-key",
			},
		},
		{
			name: "missing directory is empty",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: Secrets{},
		},
		{
			name: "skips empty files, dotfiles and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, GroqAPIKey, "valid-key")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: Secrets{GroqAPIKey: "valid-key"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read files without permission bits")
	}
	dir := t.TempDir()
	writeFile(t, dir, ResendAPIKey, "value123")
	badPath := filepath.Join(dir, GroqAPIKey)
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	got, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "value123", got[ResendAPIKey])
	assert.NotContains(t, got, GroqAPIKey)
}

func TestFill(t *testing.T) {
	s := Secrets{GroqAPIKey: "from-file"}

	empty := ""
	s.Fill(&empty, GroqAPIKey)
	assert.Equal(t, "from-file", empty)

	set := "from-env"
	s.Fill(&set, GroqAPIKey)
	assert.Equal(t, "from-env", set)

	missing := ""
	s.Fill(&missing, ResendAPIKey)
	assert.Empty(t, missing)
}

func TestNames(t *testing.T) {
	s := Secrets{ResendAPIKey: "b", GroqAPIKey: "a"}
	assert.Equal(t, []string{GroqAPIKey, ResendAPIKey}, s.Names())
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
