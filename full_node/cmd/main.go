package main

import (
	"bufio"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Luismorlan/ledger_in_go/commands"
	"github.com/Luismorlan/ledger_in_go/config"
	"github.com/Luismorlan/ledger_in_go/full_node"
	"github.com/Luismorlan/ledger_in_go/layout"
	"github.com/Luismorlan/ledger_in_go/metrics"
	"github.com/jroimartin/gocui"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

//go:embed usage.txt
var usage string

func newRootCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "full_node",
		Short: "Run a single ledger node",
		Long:  `full_node keeps a blockchain of transfers in memory, mines blocks and answers balance queries.`,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Fail on bad logging flags before the terminal is taken over.
			_, err := newLogger(io.Discard, v.GetString("log_level"), v.GetString("log_format"), false)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := resolveConfig(v)
			if err != nil {
				return err
			}
			return run(cmd, v, c)
		},
	}

	cmd.Flags().String("config_path", "", "path to a YAML full node config, defaults apply when empty")
	cmd.Flags().Bool("debug_mode", false, "read commands from stdin instead of the terminal UI")
	cmd.Flags().Int("difficulty", 0, "leading zero hex characters required by proof of work")
	cmd.Flags().Float64("mining_reward", 0, "base reward of a mined block")
	cmd.Flags().String("ledger_policy", "", "eager or derived")
	cmd.Flags().String("mining_policy", "", "pow or noop")
	cmd.Flags().String("metrics_addr", "", "serve prometheus metrics on this address, disabled when empty")
	cmd.Flags().String("log_level", "info", "debug, info, warn or error")
	cmd.Flags().String("log_format", "console", "console or json")
	cmd.Flags().Duration("mine_interval", 500*time.Millisecond, "pause between blocks while mining continuously")
	cmd.Flags().String("render_dir", os.TempDir(), "directory receiving the output of show")

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		panic(err)
	}
	v.SetEnvPrefix("ledger")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd
}

// resolveConfig reads the config file, if any, then applies flags and LEDGER_* environment
// variables on top.
func resolveConfig(v *viper.Viper) (config.AppConfig, error) {
	c := config.Default()
	if path := v.GetString("config_path"); path != "" {
		var err error
		if c, err = config.ParseAppConfig(path); err != nil {
			return c, err
		}
	}
	if v.IsSet("difficulty") {
		c.DIFFICULTY = v.GetInt("difficulty")
	}
	if v.IsSet("mining_reward") {
		c.MINING_REWARD = v.GetFloat64("mining_reward")
	}
	if v.IsSet("ledger_policy") {
		c.LEDGER_POLICY = config.ParseLedgerPolicy(v.GetString("ledger_policy"))
	}
	if v.IsSet("mining_policy") {
		c.MINING_POLICY = config.ParseMiningPolicy(v.GetString("mining_policy"))
	}
	return c, c.Validate()
}

func newLogger(w io.Writer, level string, format string, noColor bool) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.Nop(), errors.Errorf("invalid log level: %q", level)
	}
	switch format {
	case "json":
	case "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: noColor}
	default:
		return zerolog.Nop(), errors.Errorf("invalid log format: %q", format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// readCommands parses lines from in until EOF and forwards the valid commands.
func readCommands(ctx context.Context, in io.Reader, out io.Writer, cmd chan<- commands.Command) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		c, err := commands.CreateCommand(text)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", text, err)
			continue
		}
		select {
		case cmd <- c:
		case <-ctx.Done():
			return nil
		}
	}
	return scanner.Err()
}

func run(cmd *cobra.Command, v *viper.Viper, c config.AppConfig) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// A command channel that takes external command and handle it correspondingly.
	cmds := make(chan commands.Command)

	out := cmd.OutOrStdout()
	logOut := cmd.ErrOrStderr()
	var g *gocui.Gui
	if !v.GetBool("debug_mode") {
		var err error
		if g, err = layout.CreateGui(ctx, cmds, usage); err != nil {
			return errors.Wrap(err, "create terminal UI")
		}
		defer g.Close()
		w := layout.NewLogWriter(g)
		out, logOut = w, w
	}

	logger, err := newLogger(logOut, v.GetString("log_level"), v.GetString("log_format"), g != nil)
	if err != nil {
		return err
	}
	recorder := metrics.NewRecorder()
	node, err := full_node.NewFullNode(c, full_node.WithLogger(logger), full_node.WithRecorder(recorder))
	if err != nil {
		return err
	}
	logger.Info().Str("config", strings.TrimSpace(c.String())).Msg("Starting full node")

	eg, ctx := errgroup.WithContext(ctx)
	h := newHandler(node, out, logger, v.GetDuration("mine_interval"), v.GetString("render_dir"))
	eg.Go(func() error {
		return h.run(ctx, cmds)
	})

	if addr := v.GetString("metrics_addr"); addr != "" {
		reg, err := metrics.NewRegistry(recorder, node)
		if err != nil {
			return err
		}
		eg.Go(func() error {
			return metrics.Serve(ctx, addr, reg, logger)
		})
	}

	if g != nil {
		eg.Go(func() error {
			go func() {
				<-ctx.Done()
				layout.Quit(g)
			}()
			err := g.MainLoop()
			cancel()
			if err != nil && err != gocui.ErrQuit {
				return err
			}
			return nil
		})
	} else {
		fmt.Fprint(out, usage)
		// Not part of the group, a read from stdin cannot be interrupted.
		go func() {
			if err := readCommands(ctx, cmd.InOrStdin(), out, cmds); err != nil {
				logger.Error().Err(err).Msg("Reading commands failed")
			}
			cancel()
		}()
	}

	return eg.Wait()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
