package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	cfgFlags := []string{"-c", "-config"}

	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{"separate value", []string{"-c", "origin.yaml", "-a", ":8080"}, cfgFlags, []string{"-c", "origin.yaml"}},
		{"equals form", []string{"-config=origin.json", "-d", "postgres://"}, cfgFlags, []string{"-config=origin.json"}},
		{"unknown flags dropped", []string{"-x", "1", "-y=2", "positional"}, cfgFlags, []string{}},
		{"trailing flag without value", []string{"-c"}, cfgFlags, []string{"-c"}},
		{"next token is a flag", []string{"-c", "-a"}, cfgFlags, []string{"-c"}},
		{"equals value may start with dash", []string{"-config=-odd.json"}, cfgFlags, []string{"-config=-odd.json"}},
		{"repeated flag keeps order", []string{"-c", "one.json", "-c", "two.json"}, cfgFlags, []string{"-c", "one.json", "-c", "two.json"}},
		{"several allowed", []string{"-a", ":8080", "-c", "x.json", "-z", "q"}, []string{"-a", "-c"}, []string{"-a", ":8080", "-c", "x.json"}},
		{"empty", []string{}, cfgFlags, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short", []string{"-c", "/etc/origin.yaml"}, "/etc/origin.yaml"},
		{"long", []string{"-config", "/etc/origin.json"}, "/etc/origin.json"},
		{"ignores others", []string{"-a", ":9000", "-d", "dsn"}, ""},
		{"last wins", []string{"-c", "a.json", "-config", "b.json"}, "b.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigFileFlag(tt.args))
		})
	}
}

func TestIsYAML(t *testing.T) {
	assert.True(t, IsYAML("origin.yaml"))
	assert.True(t, IsYAML("/etc/ORIGIN.YML"))
	assert.False(t, IsYAML("origin.json"))
	assert.False(t, IsYAML(""))
}
