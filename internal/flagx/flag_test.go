package flagx

import (
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
			args:         []string{"-c", "conf.json", "-a", "http://localhost"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c", "conf.json"},
		},
		{
			name:         "double dash with equals matches single dash name",
			args:         []string{"--config=alt.json", "-a", "http://localhost"},
			allowedFlags: []string{"-config"},
			want:         []string{"--config=alt.json"},
		},
		{
			name:         "double dash separate value",
			args:         []string{"--timeout", "10", "-x"},
			allowedFlags: []string{"-timeout"},
			want:         []string{"--timeout", "10"},
		},
		{
			name:         "unknown flags and positionals ignored",
			args:         []string{"-x", "1", "--y=2", "positional"},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
		{
			name:         "flag without value at end is kept as-is",
			args:         []string{"-c"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c"},
		},
		{
			name:         "next dash-starting token is not a value",
			args:         []string{"-c", "-a", "http://x"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c"},
		},
		{
			name:         "repeated allowed flag is preserved in order",
			args:         []string{"-a", "one", "-d", "5", "-a", "two"},
			allowedFlags: []string{"-a", "-d"},
			want:         []string{"-a", "one", "-d", "5", "-a", "two"},
		},
		{
			name:         "empty args",
			args:         []string{},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestConfigPath(t *testing.T) {
	t.Run("short -c with value", func(t *testing.T) {
		assert.Equal(t, "/path/short.json", ConfigPath([]string{"-c", "/path/short.json"}))
	})

	t.Run("long -config with equals", func(t *testing.T) {
		assert.Equal(t, "/path/long.json", ConfigPath([]string{"-a", "http://x", "-config=/path/long.json"}))
	})

	t.Run("no config flag", func(t *testing.T) {
		assert.Empty(t, ConfigPath([]string{"-x", "1"}))
	})

	t.Run("last wins", func(t *testing.T) {
		assert.Equal(t, "/path/2.json", ConfigPath([]string{"-c", "/path/1.json", "--config", "/path/2.json"}))
	})
}
