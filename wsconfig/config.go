// Package wsconfig loads the server's configuration from an ini file
// (section [server], keys host/port/document-root) and applies CLI
// flag overrides on top of it.
package wsconfig

import (
	"fmt"
	"os"

	"gopkg.in/ini.v1"
)

// DefaultPath is the config file name used when none is given on the
// command line.
const DefaultPath = "server.config"

// Config holds the server's three settings. Always produced via Load;
// the zero value is never valid on its own.
type Config struct {
	Host         string
	Port         int
	DocumentRoot string
}

// Load reads path as an ini file and returns the [server] section's
// host/port/document-root keys. A missing file reports
// ErrConfigNotFound so the caller can print its fixed error message
// and exit non-zero; any other parse failure is wrapped and returned
// as-is.
func Load(path string) (Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Config{}, ErrConfigNotFound
		}
		return Config{}, fmt.Errorf("wsconfig: stat %s: %w", path, err)
	}

	f, err := ini.Load(path)
	if err != nil {
		return Config{}, fmt.Errorf("wsconfig: parse %s: %w", path, err)
	}

	section := f.Section("server")
	cfg := Config{
		Host:         section.Key("host").String(),
		Port:         section.Key("port").MustInt(0),
		DocumentRoot: section.Key("document-root").String(),
	}
	return cfg, nil
}

// ApplyOverrides returns a copy of cfg with any non-zero override
// replacing cfg's own value. An override port of 0 means "not set on
// the command line" and is left alone, matching how the urfave/cli
// IntFlag default reports an absent flag.
func (c Config) ApplyOverrides(host string, port int, documentRoot string) Config {
	out := c
	if host != "" {
		out.Host = host
	}
	if port != 0 {
		out.Port = port
	}
	if documentRoot != "" {
		out.DocumentRoot = documentRoot
	}
	return out
}
