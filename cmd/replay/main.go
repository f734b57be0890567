// Command replay runs a list of commands against a fresh field and prints
// the board after every step, or only once at the end.
//
//	replay --config wells drop:I3 left left down down
//	replay --config classic --file moves.txt --final
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/fallingblocks/game/config"
	"github.com/wricardo/mcp-training/fallingblocks/game/engine"
)

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Usage:     "replay commands against a fresh field",
		ArgsUsage: "[command ...]",
		Writer:    w,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultConfigName,
				Usage:   "configuration ID to load",
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory containing field configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "read commands from a file, one per line (# starts a comment)",
			},
			&cli.BoolFlag{
				Name:  "final",
				Usage: "print only the final board",
			},
			&cli.BoolFlag{
				Name:  "stop-on-blocked",
				Usage: "stop at the first command that does not apply",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			texts := cmd.Args().Slice()
			if path := cmd.String("file"); path != "" {
				fromFile, err := readCommandFile(path)
				if err != nil {
					return err
				}
				texts = append(fromFile, texts...)
			}
			if len(texts) == 0 {
				return fmt.Errorf("no commands given")
			}

			commands, err := engine.ParseCommands(texts)
			if err != nil {
				return err
			}

			configs, err := config.NewManager(cmd.String("config-dir"))
			if err != nil {
				return err
			}
			gameConfig, err := configs.LoadConfig(cmd.String("config"))
			if err != nil {
				return fmt.Errorf("config %q: %w", cmd.String("config"), err)
			}

			return replay(cmd.Writer, gameConfig, commands, replayOptions{
				FinalOnly:     cmd.Bool("final"),
				StopOnBlocked: cmd.Bool("stop-on-blocked"),
			})
		},
	}
}

type replayOptions struct {
	FinalOnly     bool
	StopOnBlocked bool
}

func replay(w io.Writer, gameConfig *engine.GameConfig, commands []engine.Command, opts replayOptions) error {
	e, err := engine.NewEngine(gameConfig)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Config: %s (%dx%d)\n", gameConfig.Name, gameConfig.Width, gameConfig.Height)

	applied := 0
	executed := 0
	for i, c := range commands {
		ok := e.Apply(c)
		executed++
		if ok {
			applied++
		}

		if !opts.FinalOnly {
			status := "ok"
			if !ok {
				status = "blocked"
			}
			fmt.Fprintf(w, "%3d %-10s %-8s %s\n", i+1, c, status, e.GetState().Message)
			fmt.Fprint(w, e.GetField().Render())
		}

		if !ok && opts.StopOnBlocked {
			break
		}
	}

	if opts.FinalOnly {
		fmt.Fprint(w, e.GetField().Render())
	}
	fmt.Fprintf(w, "Applied %d/%d commands\n", applied, executed)
	return nil
}

func readCommandFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var texts []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		if line = strings.TrimSpace(line); line != "" {
			texts = append(texts, line)
		}
	}
	return texts, scanner.Err()
}
