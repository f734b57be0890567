// Command settle drives a running server over its REST API. For each piece of
// a session's configuration it drops the piece on a freshly reset field,
// searches locally for the deepest placement the piece can reach, and sends
// that path as one bulk command, checking the server ends where the search did.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/fallingblocks/game/engine"
	"github.com/wricardo/mcp-training/fallingblocks/game/service"
)

// Outcome is the result of settling one piece
type Outcome struct {
	Piece    string
	Plan     *Plan
	End      engine.Position
	Rotation int
	Matched  bool
}

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "Server URL")
	configID := flag.String("config", "", "Configuration ID for a new session (default: server default)")
	continueSession := flag.String("continue", "", "Use an existing session by ID")
	pieces := flag.String("pieces", "", "Comma-separated pieces to settle (default: every piece)")
	delayMs := flag.Int("delay", 0, "Delay between pieces in milliseconds")
	flag.Parse()

	log.Printf("Connecting to server at %s", *serverURL)
	client := NewClient(*serverURL)

	var session *service.SessionInfo
	var err error
	if *continueSession != "" {
		session, err = client.GetSession(*continueSession)
	} else {
		session, err = client.CreateSession(*configID)
	}
	if err != nil {
		log.Fatalf("Failed to open session: %v", err)
	}
	log.Printf("Session %s (config %s)", session.ID, session.ConfigName)

	var names []string
	if *pieces != "" {
		names = strings.Split(*pieces, ",")
	}

	outcomes, err := settleAll(client, session, names, time.Duration(*delayMs)*time.Millisecond)
	report(os.Stdout, outcomes)
	if err != nil {
		log.Fatalf("Settle failed: %v", err)
	}
	for _, o := range outcomes {
		if !o.Matched {
			os.Exit(1)
		}
	}
}

// settleAll settles each named piece, or every configured piece when names is empty
func settleAll(client *Client, session *service.SessionInfo, names []string, delay time.Duration) ([]Outcome, error) {
	if session.GameConfig == nil {
		return nil, fmt.Errorf("session %s has no configuration", session.ID)
	}
	if len(names) == 0 {
		for _, p := range session.GameConfig.Pieces {
			names = append(names, p.Name)
		}
	}

	var outcomes []Outcome
	for i, name := range names {
		if i > 0 && delay > 0 {
			time.Sleep(delay)
		}
		o, err := settle(client, session.ID, session.GameConfig, strings.TrimSpace(name))
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, *o)
	}
	return outcomes, nil
}

func settle(client *Client, sessionID string, config *engine.GameConfig, piece string) (*Outcome, error) {
	dropped, err := client.BulkCommand(sessionID, []string{"drop:" + piece}, true)
	if err != nil {
		return nil, err
	}
	if !dropped.Success {
		return nil, fmt.Errorf("drop %s: %s", piece, dropped.StoppedReason)
	}

	// mirror the server's field locally
	local, err := engine.NewEngine(config)
	if err != nil {
		return nil, err
	}
	if err := local.SetState(dropped.GameState); err != nil {
		return nil, fmt.Errorf("mirror state: %w", err)
	}

	plan := PlanDeepest(local.GetField())
	if plan == nil {
		return nil, fmt.Errorf("drop %s left no active piece", piece)
	}

	o := &Outcome{
		Piece:    piece,
		Plan:     plan,
		End:      dropped.GameState.Anchor,
		Rotation: dropped.GameState.Rotation,
	}
	// the server runs at most engine.MaxBulkCommands per request
	commands := plan.Commands()
	for len(commands) > 0 {
		result, err := client.BulkCommand(sessionID, commands[:min(len(commands), engine.MaxBulkCommands)], false)
		if err != nil {
			return nil, err
		}
		o.End = result.EndAnchor
		o.Rotation = result.GameState.Rotation
		if !result.Success || result.CommandsExecuted == 0 {
			break
		}
		commands = commands[result.CommandsExecuted:]
	}
	o.Matched = o.End == plan.Anchor && o.Rotation == plan.Rotation
	return o, nil
}

func report(w io.Writer, outcomes []Outcome) {
	for _, o := range outcomes {
		mark := "✅"
		if !o.Matched {
			mark = "❌"
		}
		fmt.Fprintf(w, "%s %-4s bottom row %d at (%d,%d) rot=%d in %d moves (%d placements explored)\n",
			mark, o.Piece, o.Plan.Bottom, o.End.Row, o.End.Col, o.Rotation, len(o.Plan.Actions), o.Plan.Explored)
		if len(o.Plan.Actions) > 0 {
			fmt.Fprintf(w, "     %s\n", strings.Join(o.Plan.Commands(), " "))
		}
	}
}
