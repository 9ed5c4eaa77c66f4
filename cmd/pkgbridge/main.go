package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/steelcutops/pkgbridge/logger"
)

type flags struct {
	Concurrency        int
	Debug              bool
	Hostnames          []string
	IniFilePath        string
	KeyPassPrompt      bool
	LogFileName        string
	PasswordPrompt     bool
	SettingsPath       string
	SudoPasswordPrompt bool
	Username           string
}

var (
	f            flags
	logrusLogger = logrus.New()
	appLog       = logger.NewLogrus(logrusLogger)
	logFile      *os.File
)

// errUnsuccessful is returned when at least one host did not report Success. The per-host
// verdicts have already been printed.
var errUnsuccessful = errors.New("operation did not succeed on every host")

var rootCmd = &cobra.Command{
	Use:   "pkgbridge",
	Short: "pkgbridge - drive system and language package managers across hosts",
	Long: `pkgbridge installs, updates and uninstalls packages through apt, dnf, yum, apk,
brew, pip and npm on local and SSH-reachable hosts.

Per-package install options and update policies are remembered in the settings
file, as are decisions about missing package manager dependencies.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return configureLogger(&f)
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&f.Debug, "debug", false, "Enable debug log level")
	pf.BoolVar(&f.KeyPassPrompt, "keypass", false, "Prompt for the passphrase decrypting SSH keys")
	pf.BoolVar(&f.PasswordPrompt, "password", false, "Prompt for a password for the SSH connection")
	pf.BoolVar(&f.SudoPasswordPrompt, "sudo-password", false, "Prompt for the sudo password up front")
	pf.IntVar(&f.Concurrency, "concurrency", 10, "Maximum number of concurrent host connections")
	pf.StringVar(&f.IniFilePath, "ini", "", "Path to INI file with host groups")
	pf.StringVar(&f.LogFileName, "log", "pkgbridge.log", "Log file name")
	pf.StringVar(&f.SettingsPath, "settings", "", "Path to the settings file (default ~/.pkgbridge/settings.ini)")
	pf.StringVar(&f.Username, "username", "", "Username to use for SSH connection")
	pf.StringArrayVar(&f.Hostnames, "hostname", nil, "Hostname to connect to (repeatable)")
}

func main() {
	err := rootCmd.Execute()
	if logFile != nil {
		logFile.Close()
	}
	if err != nil {
		if !errors.Is(err, errUnsuccessful) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func configureLogger(f *flags) error {
	file, err := os.OpenFile(f.LogFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	logFile = file

	logrusLogger.SetOutput(file)
	if f.Debug {
		logrusLogger.SetLevel(logrus.DebugLevel)
		logrusLogger.Debug("Debug mode enabled")
	} else {
		logrusLogger.SetLevel(logrus.InfoLevel)
	}
	return nil
}
