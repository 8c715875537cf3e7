package config

import (
	"github.com/spf13/cobra"
)

// AddOutputFlags adds output flags to a command.
func (c *Config) AddOutputFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&c.OutputDir, "output-dir", "o", c.OutputDir, "Base directory for relative sink paths")
	flags.StringVar(&c.AppEnv, "app-env", c.AppEnv, "Application environment, exported as APP_ENV when unset")
}

// AddHostStatsFlags adds host sampling flags to a command.
func (c *Config) AddHostStatsFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&c.HostStats.Unit, "unit", c.HostStats.Unit, "Unit for memory and disk values (MB, GB)")
	flags.StringVar(&c.HostStats.MountPoint, "mount-point", c.HostStats.MountPoint, "Filesystem reported as disk usage")
}
