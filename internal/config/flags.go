package config

import (
	"time"

	"github.com/spf13/pflag"
)

// Flags holds the global command-line flags. Only flags that were set on
// the command line override the other sources.
type Flags struct {
	fs *pflag.FlagSet

	configFile     string
	apiURL         string
	listenAddr     string
	statePath      string
	downloadDir    string
	logPath        string
	logLevel       string
	requestTimeout time.Duration
}

// Bind registers the global flags on fs.
func Bind(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVarP(&f.configFile, "config", "c", "", "config file (default: "+DefaultSources().DefaultFile+")")
	fs.StringVarP(&f.apiURL, "api", "u", DefaultAPIURL, "inventory API base URL")
	fs.StringVarP(&f.listenAddr, "addr", "a", DefaultListenAddr, "listen address for serve")
	fs.StringVarP(&f.statePath, "state", "s", "", "state database path")
	fs.StringVarP(&f.downloadDir, "dir", "d", DefaultDownloadDir, "directory exports are saved to")
	fs.StringVarP(&f.logPath, "log", "l", "", "log file path")
	fs.StringVar(&f.logLevel, "log-level", DefaultLogLevel, "log level: debug, info, warn or error")
	fs.DurationVar(&f.requestTimeout, "timeout", DefaultRequestTimeout, "API request timeout")
	return f
}

func (f *Flags) changed(name string) bool {
	return f.fs != nil && f.fs.Changed(name)
}

func (f *Flags) apply(c *Config) {
	if f.changed("api") {
		c.APIURL = f.apiURL
	}
	if f.changed("addr") {
		c.ListenAddr = f.listenAddr
	}
	if f.changed("state") {
		c.StatePath = f.statePath
	}
	if f.changed("dir") {
		c.DownloadDir = f.downloadDir
	}
	if f.changed("log") {
		c.LogPath = f.logPath
	}
	if f.changed("log-level") {
		c.LogLevel = f.logLevel
	}
	if f.changed("timeout") {
		c.RequestTimeout = f.requestTimeout
	}
}
