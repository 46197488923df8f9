package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "short flag with separate value",
			args:         []string{"-c", "moodsync.json", "--verbose"},
			allowedFlags: []string{"-c", "-config"},
			want:         []string{"-c", "moodsync.json"},
		},
		{
			name:         "equals form",
			args:         []string{"-config=/etc/moodsync/config.json", "sync", "--force"},
			allowedFlags: []string{"-c", "-config"},
			want:         []string{"-config=/etc/moodsync/config.json"},
		},
		{
			name:         "repeated flag keeps order",
			args:         []string{"-c", "a.json", "-c", "b.json"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c", "a.json", "-c", "b.json"},
		},
		{
			name:         "subcommands and foreign flags dropped",
			args:         []string{"resolve", "p1=local", "--verbose"},
			allowedFlags: []string{"-c", "-config"},
			want:         []string{},
		},
		{
			name:         "dash-starting token is not swallowed as value",
			args:         []string{"-c", "-config=alt.json"},
			allowedFlags: []string{"-c", "-config"},
			want:         []string{"-c", "-config=alt.json"},
		},
		{
			name:         "trailing flag without value",
			args:         []string{"status", "-c"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c"},
		},
		{
			name:         "empty args",
			args:         []string{},
			allowedFlags: []string{"-c", "-config"},
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("short form", func(t *testing.T) {
		os.Args = []string{"moodsync", "-c", "/home/ana/.config/moodsync/config.json", "sync"}
		assert.Equal(t, "/home/ana/.config/moodsync/config.json", JsonConfigFlags())
	})

	t.Run("long form", func(t *testing.T) {
		os.Args = []string{"moodsync", "-config", "/tmp/alt.json", "status"}
		assert.Equal(t, "/tmp/alt.json", JsonConfigFlags())
	})

	t.Run("absent", func(t *testing.T) {
		os.Args = []string{"moodsync", "sync", "--force"}
		assert.Empty(t, JsonConfigFlags())
	})

	t.Run("last occurrence wins", func(t *testing.T) {
		os.Args = []string{"moodsync", "-c", "one.json", "-config", "two.json"}
		assert.Equal(t, "two.json", JsonConfigFlags())
	})
}
