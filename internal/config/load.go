package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// BindFlags registers every recognized option on fs with the same names
// used in the config file / environment layers, so cobra commands can pass
// their flag set straight through to Load.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("log-format", "", "access log format string")
	fs.String("date-format", "", "date directive format")
	fs.String("time-format", "", "time directive format")
	fs.String("date-num-format", "", "numeric date output format")
	fs.Bool("json", false, "treat input as JSON-object-per-line")
	fs.Bool("double-decode", false, "percent-decode fields twice")
	fs.Bool("append-method", false, "append method when missing")
	fs.Bool("append-protocol", false, "append protocol when missing")
	fs.Bool("no-ip-validation", false, "skip host IP validation")
	fs.Bool("no-strict-status", false, "accept any numeric HTTP status")
	fs.Bool("ignore-crawlers", false, "ignore-panel lines from known crawlers")
	fs.Bool("crawlers-only", false, "ignore-panel lines NOT from known crawlers")
	fs.String("ignore-statics", "off", "off|req|panel")
	fs.Bool("ignore-qstr", false, "strip query strings from req before storage")
	fs.IntSlice("ignore-status", nil, "HTTP status codes to ignore-panel")
	fs.StringSlice("static-files", nil, "static file extensions, e.g. .css,.js")
	fs.Bool("all-static-files", false, "treat every extension as static")
	fs.Bool("code444-as-404", false, "treat status 444 as is_404")
	fs.Bool("restore", false, "enable resume/dedup across runs")
	fs.String("state-file", "", "resume state file path")
	fs.Int("num-tests", 20, "lines to sniff before starting the main pipeline")
	fs.Int("jobs", 1, "parser worker pool size")
	fs.Int("chunk-size", 1000, "lines per chunk handed to a worker")
	fs.Bool("process-and-exit", false, "treat pipe EAGAIN as EOF instead of retrying")
	fs.Bool("stdin", false, "read a single log from stdin")
	fs.Bool("follow", false, "keep tailing regular files after reaching EOF")
	fs.String("fname-as-vhost", "", "regex extracting vhost from filename")
	fs.String("geoip-db", "", "path to a GeoIP/GeoLite2 country mmdb")
	fs.String("asn-db", "", "path to a GeoLite2-ASN mmdb")
}

// Load builds a Context from, in ascending priority: DefaultContext, an
// optional config file, environment variables prefixed ACCESSLOGCORE_, and
// flags already parsed onto fs. It rejects a malformed regex and runs
// Validate before returning; it does not compile the log format, which
// the CLI verifies separately before the pipeline starts.
func Load(fs *pflag.FlagSet, configFile string) (*Context, error) {
	v := viper.New()
	v.SetEnvPrefix("accesslogcore")
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", configFile, err)
		}
	}

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("config: binding flags: %w", err)
		}
	}

	ctx := DefaultContext()

	if s := v.GetString("log-format"); s != "" {
		ctx.LogFormat = s
	}
	if s := v.GetString("date-format"); s != "" {
		ctx.DateFormat = s
	}
	if s := v.GetString("time-format"); s != "" {
		ctx.TimeFormat = s
	}
	if s := v.GetString("date-num-format"); s != "" {
		ctx.DateNumFormat = s
	}
	ctx.IsJSONLogFormat = v.GetBool("json")
	ctx.DoubleDecode = v.GetBool("double-decode")
	ctx.AppendMethod = v.GetBool("append-method")
	ctx.AppendProtocol = v.GetBool("append-protocol")
	ctx.NoIPValidation = v.GetBool("no-ip-validation")
	ctx.NoStrictStatus = v.GetBool("no-strict-status")
	ctx.IgnoreCrawlers = v.GetBool("ignore-crawlers")
	ctx.CrawlersOnly = v.GetBool("crawlers-only")
	ctx.IgnoreQStr = v.GetBool("ignore-qstr")
	ctx.IgnoreStatus = v.GetIntSlice("ignore-status")
	ctx.StaticFiles = v.GetStringSlice("static-files")
	ctx.AllStaticFiles = v.GetBool("all-static-files")
	ctx.Code444As404 = v.GetBool("code444-as-404")
	ctx.Restore = v.GetBool("restore")
	ctx.ProcessAndExit = v.GetBool("process-and-exit")
	ctx.ReadStdin = v.GetBool("stdin")
	ctx.Follow = v.GetBool("follow")
	ctx.GeoIPPath = v.GetString("geoip-db")
	ctx.ASNPath = v.GetString("asn-db")

	if n := v.GetInt("num-tests"); n != 0 {
		ctx.NumTests = n
	}
	if n := v.GetInt("jobs"); n != 0 {
		ctx.Jobs = n
	}
	if n := v.GetInt("chunk-size"); n != 0 {
		ctx.ChunkSize = n
	}
	if sf := v.GetString("state-file"); sf != "" {
		ctx.StateFile = sf
	}

	switch v.GetString("ignore-statics") {
	case "req":
		ctx.IgnoreStatics = StaticsIgnoreReq
	case "panel":
		ctx.IgnoreStatics = StaticsIgnorePanel
	default:
		ctx.IgnoreStatics = StaticsOff
	}

	if pat := v.GetString("fname-as-vhost"); pat != "" {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("config: fname-as-vhost: %w", err)
		}
		ctx.FnameAsVHost = re
	}

	if err := ctx.Validate(); err != nil {
		return nil, err
	}

	return ctx, nil
}

func defaultStateFile() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		dir = os.TempDir()
	}
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		dir = xdg
	} else {
		dir = filepath.Join(dir, ".local", "state")
	}
	return filepath.Join(dir, "accesslogcore", "resume.msgpack")
}
