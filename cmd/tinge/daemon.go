package main

import (
	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/maniglio/tinge/pkg/daemon"
	"github.com/maniglio/tinge/pkg/version"
)

var (
	// alwaysAllowNonRootAccess indicates whether to always allow non-root
	// users to access the tinge daemon.
	alwaysAllowNonRootAccess = false
	i2cBusName               = ""
)

// daemonEnv carries the environment overrides honored by the daemon command,
// mostly for systemd unit files and .env development setups. Explicitly set
// flags win over the environment.
type daemonEnv struct {
	I2CBus     string `env:"TINGE_I2C_BUS"`
	SocketPath string `env:"TINGE_SOCKET"`
	ConfigPath string `env:"TINGE_CONFIG"`
}

// NewDaemonCommand .
func NewDaemonCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "daemon",
		Short:   "Run tinge daemon in the foreground",
		GroupID: gAdvanced,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()

			e := daemonEnv{}
			if err := env.Parse(&e); err != nil {
				return err
			}
			if e.I2CBus != "" && !cmd.Flags().Changed("i2c-bus") {
				i2cBusName = e.I2CBus
			}
			if e.SocketPath != "" && !cmd.Flags().Changed("daemon-socket") {
				unixSocketPath = e.SocketPath
			}
			if e.ConfigPath != "" && !cmd.Flags().Changed("config") {
				configPath = e.ConfigPath
			}

			logrus.WithFields(logrus.Fields{
				"version": version.Version,
				"commit":  version.GitCommit,
			}).Info("tinge daemon starting")
			return daemon.Run(configPath, unixSocketPath, i2cBusName, alwaysAllowNonRootAccess)
		},
	}

	f := cmd.Flags()

	f.BoolVar(&alwaysAllowNonRootAccess, "always-allow-non-root-access", false,
		"Always allow non-root users to access the daemon.")
	f.StringVar(&i2cBusName, "i2c-bus", "",
		"I2C bus name or number the sensor is wired to (empty picks the first available bus).")

	return cmd
}
