// Omnidesk CLI - console client for the Omnidesk messaging backend
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/eldtechnologies/omnidesk/clients/go/omnidesk"
	"github.com/eldtechnologies/omnidesk/internal/config"
)

var (
	configDir string
	debug     bool
	asJSON    bool

	cfg    *config.ClientConfig
	client *omnidesk.Client
)

var rootCmd = &cobra.Command{
	Use:           "omnidesk",
	Short:         "Customer messaging console for WhatsApp, Instagram and Messenger",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadClient(configDir)
		if err != nil {
			return err
		}
		client, err = newClient(cfg)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.omnidesk)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log every API call to stderr")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print raw JSON")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
	rootCmd.AddCommand(conversationsCmd, messagesCmd, sendCmd)
	rootCmd.AddCommand(settingsCmd, testConnectionCmd, automationCmd)
	rootCmd.AddCommand(aiTestCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}

// newClient builds the SDK client and ties the session to the session file,
// so a 401 from any command also clears the stored credentials.
func newClient(cfg *config.ClientConfig) (*omnidesk.Client, error) {
	level := zerolog.WarnLevel
	if debug || cfg.Debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()

	channels := make([]omnidesk.Platform, 0, len(cfg.Channels))
	for _, name := range cfg.Channels {
		p, ok := omnidesk.ParsePlatform(name)
		if !ok {
			return nil, fmt.Errorf("unknown channel %q in config", name)
		}
		channels = append(channels, p)
	}

	session := omnidesk.NewSessionStore()
	saved, err := omnidesk.LoadSession(cfg.SessionPath())
	if err != nil {
		logger.Warn().Err(err).Msg("ignoring unreadable session file")
	}
	session.Restore(saved)

	path := cfg.SessionPath()
	session.OnChange(func(s omnidesk.Session) {
		var err error
		if s.IsAuthenticated() {
			err = omnidesk.SaveSession(path, s)
		} else {
			err = omnidesk.RemoveSession(path)
		}
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("session file not updated")
		}
	})

	return omnidesk.NewClient(omnidesk.Config{
		BaseURL:              cfg.APIURL,
		Timeout:              cfg.Timeout,
		FallbackName:         cfg.FallbackName,
		Channels:             channels,
		GenericConversations: cfg.Generic,
		RequestsPerSecond:    cfg.RatePerSec,
		Session:              session,
		Logger:               &logger,
	}), nil
}
