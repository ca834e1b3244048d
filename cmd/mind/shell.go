package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/danielpatrickdp/cosmicmind/internal/continuity"
	"github.com/danielpatrickdp/cosmicmind/internal/engine"
	"github.com/danielpatrickdp/cosmicmind/internal/peer"
	"github.com/danielpatrickdp/cosmicmind/internal/scheduler"
	"github.com/danielpatrickdp/cosmicmind/internal/state"
)

const (
	frameListLimit  = 20
	relatedDepth    = 3
	relatedMaxNodes = 10
	historyDefault  = 10
)

var historyLimit = 20

const helpText = `Commands:
  help                   Show this text
  say <text>             Inject a phenomenon (like 'say Hello?')
  think                  Force a cognitive cycle and show decisions
  summary                Print compact state summary
  truths                 List derived truths
  frames                 List stored phenomenological frames
  persist                Force persist state to disk
  inspect <type> <id>    Inspect a truth or frame by ID (type: truth|frame)
  related <frame-id>     Show frames linked by similarity
  peers                  List known peer agents
  connect <addr>         Add a peer address and introduce this agent
  history                List archived snapshot versions
  rollback <version-id>  Restore an archived snapshot
  quit / exit            Save & Exit
Any unrecognized input is ingested as a phenomenon.`

// #region shell
// shell is the interactive front end of one agent. node, sched, and archive
// are optional.
type shell struct {
	mind    *engine.Mind
	node    *peer.Node
	sched   *scheduler.Scheduler
	archive *continuity.Archive

	in  io.Reader
	mu  sync.Mutex
	out io.Writer
}

func newShell(mind *engine.Mind, in io.Reader, out io.Writer) *shell {
	return &shell{mind: mind, in: in, out: out}
}

func (s *shell) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func (s *shell) println(text string) { s.printf("%s\n", text) }

func (s *shell) banner() {
	s.println("------------------------------------------------------")
	s.println(" CosmicMind CLI - Interactive Hybrid Agent")
	s.printf(" Identity: %s  |  Telos: %s\n", s.mind.Identity(), s.mind.Telos())
	s.println(" Type 'help' for commands.")
	s.println("------------------------------------------------------")
}

// autoActions prints actions from scheduler-driven cycles.
func (s *shell) autoActions(actions []state.Action) {
	for _, a := range actions {
		s.printf("AUTO-ACTION: [%s] -> %s  (Reason: %s)\n", a.Intent, a.Payload, a.Justification)
	}
}

// Run reads commands until quit, end of input, or ctx is done.
func (s *shell) Run(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(s.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	s.banner()
	for {
		s.printf("\n> ")
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if s.exec(ctx, line) {
				return nil
			}
		}
	}
}

// #endregion shell

// #region commands

// exec handles one input line and reports whether the shell should exit.
func (s *shell) exec(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "quit", "exit":
		s.println("Exiting, persisting state...")
		s.mind.Cycle(ctx)
		return true
	case "help":
		s.println(helpText)
	case "say":
		if arg == "" {
			s.println("Usage: say <text>")
			return false
		}
		s.mind.Ingest(ctx, arg)
	case "think":
		s.think(ctx)
	case "summary":
		s.println(s.mind.Summary())
	case "truths":
		s.truths()
	case "frames":
		s.frames()
	case "persist":
		if err := s.mind.Persist(ctx); err != nil {
			s.printf("Persist failed: %v\n", err)
			return false
		}
		s.println("Persist requested.")
	case "inspect":
		s.inspect(arg)
	case "related":
		s.related(arg)
	case "peers":
		s.peers()
	case "connect":
		s.connect(ctx, arg)
	case "history":
		s.history(historyDefault)
	case "rollback":
		s.rollback(arg)
	default:
		s.mind.Ingest(ctx, line)
	}
	return false
}

func (s *shell) think(ctx context.Context) {
	var actions []state.Action
	if s.sched != nil {
		var ran bool
		actions, ran = s.sched.Trigger(ctx)
		if !ran {
			s.println("A cycle is already running.")
			return
		}
	} else {
		actions = s.mind.Cycle(ctx)
	}
	if len(actions) == 0 {
		s.println("No actions decided this cycle.")
		return
	}
	for _, a := range actions {
		s.printf("ACTION: [%s] -> %s  (Reason: %s)\n", a.Intent, a.Payload, a.Justification)
	}
}

func (s *shell) truths() {
	truths := s.mind.Truths()
	if len(truths) == 0 {
		s.println("No derived truths yet.")
		return
	}
	for _, t := range truths {
		s.printf("- [%s]: %s (confidence: %v)\n", t.ID, t.Principle, t.Confidence)
	}
}

func (s *shell) frames() {
	frames := s.mind.Frames()
	for i, f := range frames {
		if i == frameListLimit {
			break
		}
		s.printf("- [%s]: %s (salience: %v)\n", f.ID, f.RawInput, f.Salience)
	}
	if len(frames) > frameListLimit {
		s.printf("... %d more frames.\n", len(frames)-frameListLimit)
	}
}

func (s *shell) inspect(arg string) {
	kind, id, _ := strings.Cut(arg, " ")
	id = strings.TrimSpace(id)
	if kind == "" || id == "" {
		s.println("Usage: inspect <truth|frame> <id>")
		return
	}
	switch kind {
	case "truth":
		if t, ok := s.mind.Truth(id); ok {
			s.printf("Truth: %s\nConfidence: %v\nSupporting frames: %d\n", t.Principle, t.Confidence, len(t.SupportingFrames))
			return
		}
	case "frame":
		if f, ok := s.mind.Frame(id); ok {
			s.printf("Frame raw: %s\nInterpretation: %s\nSalience: %v\n", f.RawInput, f.Interpretation, f.Salience)
			return
		}
	}
	s.println("Not found.")
}

func (s *shell) related(id string) {
	if id == "" {
		s.println("Usage: related <frame-id>")
		return
	}
	if _, ok := s.mind.Frame(id); !ok {
		s.println("Not found.")
		return
	}
	n := 0
	for _, f := range s.mind.Related(id, relatedDepth, relatedMaxNodes) {
		if f.ID == id {
			continue
		}
		s.printf("- [%s]: %s (salience: %v)\n", f.ID, f.RawInput, f.Salience)
		n++
	}
	if n == 0 {
		s.println("No related frames.")
	}
}

func (s *shell) peers() {
	if s.node == nil {
		s.println("Peer network disabled.")
		return
	}
	known := s.node.Peers()
	if len(known) == 0 {
		s.println("No known peers.")
	}
	for _, p := range known {
		s.printf("- %s (%s) last seen %s\n", p.ID, p.Identity, p.LastSeen.Format(time.RFC3339))
	}
	if addrs := s.node.Addrs(); len(addrs) > 0 {
		s.printf("Addresses: %s\n", strings.Join(addrs, ", "))
	}
}

func (s *shell) connect(ctx context.Context, addr string) {
	if addr == "" {
		s.println("Usage: connect <addr>")
		return
	}
	if s.node == nil {
		s.println("Peer network disabled.")
		return
	}
	s.node.Connect(addr)
	s.printf("Introduced to %d peer(s).\n", s.node.Introduce(ctx))
}

func (s *shell) history(limit int) {
	if s.archive == nil {
		s.println("History archive disabled.")
		return
	}
	versions, err := s.archive.List(limit)
	if err != nil {
		s.printf("History failed: %v\n", err)
		return
	}
	if len(versions) == 0 {
		s.println("No archived versions yet.")
		return
	}
	current, _ := s.archive.Current()
	for _, v := range versions {
		marker := " "
		if v.VersionID == current.VersionID {
			marker = "*"
		}
		s.printf("%s %s  cycle %d  truths %d  frames %d  %s\n",
			marker, v.VersionID, v.CycleCount, v.TruthCount, v.FrameCount, v.CreatedAt.Format(time.RFC3339))
	}
}

func (s *shell) rollback(id string) {
	if id == "" {
		s.println("Usage: rollback <version-id>")
		return
	}
	if s.archive == nil {
		s.println("History archive disabled.")
		return
	}
	snap, err := s.archive.Rollback(id)
	if err != nil {
		s.printf("Rollback failed: %v\n", err)
		return
	}
	s.mind.Replace(*snap)
	s.printf("Rolled back to %s (cycle %d).\n", id, snap.CycleCount)
}

// #endregion commands
