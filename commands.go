package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/flokli/monprof/config"
	"github.com/flokli/monprof/mqtt"
	"github.com/flokli/monprof/outputs"
	"github.com/flokli/monprof/outputs/kscreen"
	"github.com/flokli/monprof/outputs/sway"
	"github.com/flokli/monprof/profiles"
	"github.com/flokli/monprof/server"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type app struct {
	configPath   string
	profilesPath string
	backend      string
	verbose      bool

	cfg *config.Config

	// openDisplay connects to the display configuration service. The
	// returned func releases the connection.
	openDisplay func(backend string) (outputs.Display, func() error, error)
}

func newApp() *app {
	return &app{openDisplay: openDisplay}
}

func openDisplay(backend string) (outputs.Display, func() error, error) {
	switch backend {
	case config.BackendSway:
		return sway.New(), func() error { return nil }, nil
	default:
		client, err := kscreen.Connect()
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	}
}

// rawConfigSource is implemented by backends that can show their own wire
// representation.
type rawConfigSource interface {
	FetchRawConfig(ctx context.Context) (kscreen.Value, error)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "monprof",
		Short:         "Manage named display layout profiles",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/monprof/config.yaml)")
	root.PersistentFlags().StringVar(&a.profilesPath, "profiles", "", "profiles file, overrides the config file")
	root.PersistentFlags().StringVar(&a.backend, "backend", "", "display backend (kscreen or sway), overrides the config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		a.newListCmd(),
		a.newShowCmd(),
		a.newSaveCmd(),
		a.newApplyCmd(),
		a.newDeleteCmd(),
		a.newCurrentCmd(),
		a.newAgentCmd(),
	)
	return root
}

func (a *app) loadConfig() error {
	path := a.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if a.profilesPath != "" {
		cfg.Profiles = a.profilesPath
	}
	if a.backend != "" {
		cfg.Backend = a.backend
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)
	log.WithFields(log.Fields{
		"config":   path,
		"backend":  cfg.Backend,
		"profiles": cfg.Profiles,
	}).Debug("loaded config")

	a.cfg = cfg
	return nil
}

func (a *app) store() *profiles.Store {
	return profiles.NewStore(a.cfg.Profiles)
}

// withManager connects to the display and runs fn with a manager on top of
// it, releasing the connection afterwards.
func (a *app) withManager(fn func(m *profiles.Manager, display outputs.Display) error) error {
	display, closeFn, err := a.openDisplay(a.cfg.Backend)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeFn(); err != nil {
			log.WithError(err).Warn("unable to close display connection")
		}
	}()
	return fn(profiles.NewManager(a.store(), display), display)
}

func writeJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to marshal json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func (a *app) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := a.store().List()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func (a *app) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a stored profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.store().Get(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), cfg)
		},
	}
}

func (a *app) newSaveCmd() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save the current layout, or a layout read from a file, as a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if from != "" {
				cfg, err := readLayout(from)
				if err != nil {
					return err
				}
				if err := profiles.NewManager(a.store(), nil).Save(name, cfg); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved profile %q with %d outputs\n", name, len(cfg.Outputs))
				return nil
			}

			return a.withManager(func(m *profiles.Manager, _ outputs.Display) error {
				cfg, err := m.SaveCurrent(cmd.Context(), name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved profile %q with %d outputs\n", name, len(cfg.Outputs))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "read the layout from a JSON file instead of the display")
	return cmd
}

// readLayout reads a layout in profile format ({"outputs": [...]}).
func readLayout(path string) (*outputs.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read layout: %w", err)
	}
	var cfg outputs.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unable to parse layout %s: %w", path, err)
	}
	return &cfg, nil
}

func (a *app) newApplyCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "apply <name>",
		Short: "Apply a stored profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			return a.withManager(func(m *profiles.Manager, display outputs.Display) error {
				if !dryRun {
					if err := m.Apply(cmd.Context(), name); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Applied profile %q\n", name)
					return nil
				}

				cfg, err := m.Get(name)
				if err != nil {
					return err
				}
				return printPlan(cmd.Context(), cmd.OutOrStdout(), display, cfg)
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be sent to the display instead of applying it")
	return cmd
}

// printPlan prints what applying cfg would send to the display.
func printPlan(ctx context.Context, w io.Writer, display outputs.Display, cfg *outputs.Config) error {
	switch d := display.(type) {
	case rawConfigSource:
		live, err := d.FetchRawConfig(ctx)
		if err != nil {
			return err
		}
		return writeJSON(w, kscreen.DenormalizeAgainst(cfg, live))
	case *sway.Sway:
		lines := make([]string, 0, len(cfg.Outputs))
		for _, c := range sway.Commands(cfg) {
			lines = append(lines, "swaymsg "+c.String())
		}
		_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
		return err
	default:
		return fmt.Errorf("dry run is not supported by this backend")
	}
}

func (a *app) newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			deleted, err := profiles.NewManager(a.store(), nil).Delete(name)
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("profile %q: %w", name, profiles.ErrNotFound)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted profile %q\n", name)
			return nil
		},
	}
}

func (a *app) newCurrentCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "current",
		Short: "Print the current layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *profiles.Manager, display outputs.Display) error {
				if raw {
					source, ok := display.(rawConfigSource)
					if !ok {
						return fmt.Errorf("backend %s has no raw configuration", a.cfg.Backend)
					}
					value, err := source.FetchRawConfig(cmd.Context())
					if err != nil {
						return err
					}
					return writeJSON(cmd.OutOrStdout(), value)
				}

				cfg, err := m.Current(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), cfg)
			})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the configuration as reported by the display service")
	return cmd
}

func (a *app) newAgentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agent",
		Short: "Publish the layout and profiles over MQTT and apply profiles on request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			machineID, err := GetMachineID()
			if err != nil {
				return err
			}

			return a.withManager(func(m *profiles.Manager, display outputs.Display) error {
				watcher := outputs.NewWatcher(display, a.cfg.PollInterval)
				s := server.New(machineID, a.cfg.MQTT.TopicPrefix, m, watcher)

				mqttClient, err := mqtt.Connect(a.cfg.MQTT.Broker, mqtt.ClientID("monprof"), s.AvailabilityTopic())
				if err != nil {
					log.Error("unable to connect to MQTT")
					return fmt.Errorf("unable to connect to mqtt: %w", err)
				}
				defer mqtt.Disconnect(mqttClient, s.AvailabilityTopic())

				return s.Run(cmd.Context(), mqttClient)
			})
		},
	}
}
