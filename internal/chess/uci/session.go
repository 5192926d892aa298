// Package uci drives an external UCI engine process (stockfish and friends).
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultReadyTimeout = 4 * time.Second
	lineBuffer          = 64
)

// Options are the engine settings applied once at startup.
type Options struct {
	Threads int
	HashMB  int
}

// Limits bound a single search. At least one must be set.
type Limits struct {
	Depth          int
	MoveTimeMillis int
}

// SearchRequest is one position to search.
type SearchRequest struct {
	FEN    string
	Limits Limits
}

// SearchResponse carries the chosen move and the last reported score.
type SearchResponse struct {
	BestMove string
	EvalCP   int
	Depth    int
}

type lineResult struct {
	line string
	err  error
}

// Session owns one engine process and serializes access to it. A single
// goroutine reads the engine's output for the life of the process.
type Session struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	lines  chan lineResult
	mu     sync.Mutex
	search sync.Mutex
	// abandoned is set when a search gave up before its bestmove arrived.
	abandoned bool
}

// NewSession starts the engine binary and waits for it to report ready.
func NewSession(ctx context.Context, binaryPath string, opt Options) (*Session, error) {
	if opt.HashMB <= 0 {
		return nil, fmt.Errorf("hash size must be > 0: %d", opt.HashMB)
	}

	cmd := exec.CommandContext(ctx, binaryPath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdoutPipe.Close()
		return nil, fmt.Errorf("start engine: %w", err)
	}

	s := newSession(stdin, stdoutPipe)
	s.cmd = cmd

	if err := s.initialize(ctx, opt); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func newSession(stdin io.WriteCloser, stdout io.Reader) *Session {
	s := &Session{
		stdin: stdin,
		lines: make(chan lineResult, lineBuffer),
	}
	go s.readLoop(bufio.NewReader(stdout))
	return s
}

func (s *Session) readLoop(r *bufio.Reader) {
	defer close(s.lines)
	for {
		line, err := r.ReadString('\n')
		s.lines <- lineResult{line: strings.TrimSpace(line), err: err}
		if err != nil {
			return
		}
	}
}

// Search sends a fresh game and position, then waits for bestmove.
func (s *Session) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	s.search.Lock()
	defer s.search.Unlock()

	if s.abandoned {
		if err := s.resync(ctx); err != nil {
			return SearchResponse{}, fmt.Errorf("resync engine: %w", err)
		}
	}

	if err := s.send("ucinewgame\n"); err != nil {
		return SearchResponse{}, fmt.Errorf("send ucinewgame: %w", err)
	}
	if err := s.send(buildPositionCommand(req.FEN)); err != nil {
		return SearchResponse{}, fmt.Errorf("send position: %w", err)
	}

	goCmd, err := buildGoCommand(req.Limits)
	if err != nil {
		return SearchResponse{}, err
	}
	if err := s.send(goCmd); err != nil {
		return SearchResponse{}, fmt.Errorf("send go: %w", err)
	}

	searchCtx, cancel := context.WithTimeout(ctx, computeSearchTimeout(req.Limits))
	defer cancel()

	var resp SearchResponse
	for {
		line, err := s.readLine(searchCtx)
		if err != nil {
			if searchCtx.Err() != nil {
				s.abandon()
			}
			log.Error().Err(err).Str("fen", req.FEN).Str("go", strings.TrimSpace(goCmd)).Msg("uci read failed")
			return SearchResponse{}, fmt.Errorf("read line: %w", err)
		}
		switch {
		case strings.HasPrefix(line, "info "):
			if depth, cp, ok := parseInfo(line); ok {
				resp.Depth, resp.EvalCP = depth, cp
			}
		case strings.HasPrefix(line, "bestmove"):
			parts := strings.Fields(line)
			if len(parts) < 2 || parts[1] == "(none)" {
				return SearchResponse{}, fmt.Errorf("engine returned no move")
			}
			resp.BestMove = parts[1]
			return resp, nil
		}
	}
}

// abandon stops the running search. Its bestmove is still on the way and is
// discarded by the next Search.
func (s *Session) abandon() {
	s.abandoned = true
	if err := s.send("stop\n"); err != nil {
		log.Warn().Err(err).Msg("uci stop failed")
	}
}

// resync drops output up to the bestmove of an abandoned search.
func (s *Session) resync(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultReadyTimeout)
	defer cancel()
	if err := s.send("stop\n"); err != nil {
		return err
	}
	for {
		line, err := s.readLine(ctx)
		if err != nil {
			return err
		}
		if strings.HasPrefix(line, "bestmove") {
			log.Debug().Str("line", line).Msg("uci discarded stale result")
			s.abandoned = false
			return nil
		}
	}
}

func buildPositionCommand(fen string) string {
	if strings.TrimSpace(fen) == "" || fen == "startpos" {
		return "position startpos\n"
	}
	return "position fen " + fen + "\n"
}

func buildGoCommand(l Limits) (string, error) {
	args := []string{"go"}
	if l.Depth > 0 {
		args = append(args, "depth", strconv.Itoa(l.Depth))
	}
	if l.MoveTimeMillis > 0 {
		args = append(args, "movetime", strconv.Itoa(l.MoveTimeMillis))
	}
	if len(args) == 1 {
		return "", fmt.Errorf("no search limits specified")
	}
	return strings.Join(args, " ") + "\n", nil
}

func computeSearchTimeout(l Limits) time.Duration {
	if l.MoveTimeMillis > 0 {
		return time.Duration(l.MoveTimeMillis+2000) * time.Millisecond
	}
	base := time.Duration(l.Depth) * 300 * time.Millisecond
	if base < 6*time.Second {
		base = 6 * time.Second
	}
	return base
}

// parseInfo extracts depth and centipawn score; mate scores saturate.
func parseInfo(line string) (int, int, bool) {
	parts := strings.Fields(line)
	var (
		depth, cp int
		found     bool
	)
	for i := 0; i < len(parts); i++ {
		switch parts[i] {
		case "depth":
			if i+1 < len(parts) {
				if v, err := strconv.Atoi(parts[i+1]); err == nil {
					depth = v
				}
				i++
			}
		case "score":
			if i+2 < len(parts) {
				v, err := strconv.Atoi(parts[i+2])
				if err == nil {
					switch parts[i+1] {
					case "cp":
						cp, found = v, true
					case "mate":
						const mateValue = 30000
						cp, found = mateValue, true
						if v < 0 {
							cp = -mateValue
						}
					}
				}
				i += 2
			}
		}
	}
	return depth, cp, found
}

// Close kills the engine process.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdin != nil {
		s.stdin.Close()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	if s.cmd != nil {
		return s.cmd.Wait()
	}
	return nil
}

func (s *Session) initialize(ctx context.Context, opt Options) error {
	initCtx, cancel := context.WithTimeout(ctx, defaultReadyTimeout)
	defer cancel()

	if err := s.send("uci\n"); err != nil {
		return fmt.Errorf("send uci: %w", err)
	}
	if err := s.awaitToken(initCtx, "uciok"); err != nil {
		return fmt.Errorf("wait uciok: %w", err)
	}

	threads := opt.Threads
	if threads <= 0 {
		threads = 1
	}
	for _, cmd := range []string{
		fmt.Sprintf("setoption name Threads value %d\n", threads),
		fmt.Sprintf("setoption name Hash value %d\n", opt.HashMB),
	} {
		if err := s.send(cmd); err != nil {
			return fmt.Errorf("apply options: %w", err)
		}
	}

	if err := s.send("isready\n"); err != nil {
		return fmt.Errorf("send isready: %w", err)
	}
	if err := s.awaitToken(initCtx, "readyok"); err != nil {
		return fmt.Errorf("wait readyok: %w", err)
	}
	return nil
}

func (s *Session) send(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.stdin, msg)
	return err
}

func (s *Session) awaitToken(ctx context.Context, token string) error {
	for {
		line, err := s.readLine(ctx)
		if err != nil {
			return err
		}
		if strings.Contains(line, token) {
			return nil
		}
	}
}

func (s *Session) readLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-s.lines:
		if !ok {
			return "", io.EOF
		}
		return res.line, res.err
	}
}
