package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reoring/goklab/config"
	"github.com/reoring/goklab/i18n"
	"github.com/reoring/goklab/internal/logging"
)

const envPrefix = "GOKLAB"

// cli carries the state shared by all subcommands.
type cli struct {
	v       *viper.Viper
	cfgFile string
	lang    string
	out     io.Writer
	errOut  io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	_, root := newCLI(out, errOut)
	return root
}

func newCLI(out, errOut io.Writer) (*cli, *cobra.Command) {
	c := &cli{v: viper.New(), out: out, errOut: errOut}
	root := &cobra.Command{
		Use:   "goklab",
		Short: "goklab: k.LAB geometry codec and engine client",
		Long: `goklab reads and writes the compact geometry strings used by k.LAB and
submits observations to a k.LAB engine.

Configuration is read from a YAML file (--config), GOKLAB_* environment
variables and flags, in increasing order of precedence.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.lang != "" {
				i18n.SetLanguage(c.lang)
			}
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "config file (YAML)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", logging.FormatText, "log format (text, json)")
	pf.String("engine-url", config.DefaultEngineURL, "engine URL")
	pf.StringVar(&c.lang, "lang", "", "language of error messages (en, ja)")

	_ = c.v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = c.v.BindPFlag("log.format", pf.Lookup("log-format"))
	_ = c.v.BindPFlag("engine.url", pf.Lookup("engine-url"))

	root.AddCommand(
		newDecodeCmd(c),
		newEncodeCmd(c),
		newBuildCmd(c),
		newObserveCmd(c),
	)
	return c, root
}

// config layers environment variables and flags over the config file, or
// over the defaults when no file is given. Flags left unset yield to both.
func (c *cli) config() (*config.Config, error) {
	base := config.Default()
	if c.cfgFile != "" {
		loaded, err := config.Load(c.cfgFile)
		if err != nil {
			return nil, err
		}
		base = loaded
	}

	v := c.v
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("engine.url", base.Engine.URL)
	v.SetDefault("engine.username", base.Engine.Username)
	v.SetDefault("engine.password", base.Engine.Password)
	v.SetDefault("polling.interval", base.Polling.Interval)
	v.SetDefault("polling.timeout", base.Polling.Timeout)
	v.SetDefault("log.level", base.Log.Level)
	v.SetDefault("log.format", base.Log.Format)

	cfg := &config.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unable to decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *cli) logger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(c.errOut, cfg.Log.Level, cfg.Log.Format)
}
