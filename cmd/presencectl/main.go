// Command presencectl is a terminal companion for a PresencePro school
// attendance backend: sign in, browse the roster, record check-ins and pull
// reports without opening the web dashboard.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/presencepro/presencepro-go/pkg/presence"
)

var (
	flagBaseURL     string
	flagSessionFile string
	flagTimeout     time.Duration
	flagVerbose     bool

	logger zerolog.Logger
	client *presence.Client
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "presencectl",
		Short:         "PresencePro attendance CLI",
		Long:          "Manage a PresencePro school attendance backend from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setup()
		},
	}

	cmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", presence.DefaultBaseURL, "API base URL")
	cmd.PersistentFlags().StringVar(&flagSessionFile, "session-file", defaultSessionFile(), "session file path")
	cmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", presence.DefaultTimeout, "HTTP timeout")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(
		loginCmd(),
		logoutCmd(),
		whoamiCmd(),
		studentsCmd(),
		classesCmd(),
		attendanceCmd(),
		checkinCmd(),
		todayCmd(),
		exportCmd(),
	)

	return cmd
}

// setup builds the shared client. The session file keeps the token pair
// across invocations, so a login survives until the refresh token dies.
func setup() error {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	var err error
	client, err = presence.NewClient(&presence.ClientOptions{
		BaseURL:     flagBaseURL,
		Timeout:     flagTimeout,
		SessionFile: flagSessionFile,
		Logger:      &zerologAdapter{log: &logger},
		Hooks: &presence.Hooks{
			OnSessionExpired: func(reason string) {
				fmt.Fprintln(os.Stderr, reason)
			},
		},
	})
	return err
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".presencepro-session.json"
	}
	return filepath.Join(home, ".presencepro", "session.json")
}

func displayBanner() {
	figure.NewFigure("PresencePro", "cybermedium", true).Print()
	fmt.Println()
}

// zerologAdapter exposes a zerolog.Logger through the client's Logger
// interface.
type zerologAdapter struct {
	log *zerolog.Logger
}

func (a *zerologAdapter) Debug(msg string, keysAndValues ...interface{}) {
	a.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (a *zerologAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.log.Info().Fields(keysAndValues).Msg(msg)
}

func (a *zerologAdapter) Warn(msg string, keysAndValues ...interface{}) {
	a.log.Warn().Fields(keysAndValues).Msg(msg)
}

func (a *zerologAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.log.Error().Fields(keysAndValues).Msg(msg)
}
