package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/park285/cheese-board/internal/boardclient"
	dto "github.com/park285/cheese-board/pkg/boarddto"
)

const usage = `boardctl [-addr URL] [-game ID] [-H "Name: value"]... <command> [args]

commands:
  new                 start a game and print its id
  list                list active games
  show                print the board and status
  select <id|square>  select a piece by id or square
  move <square>       move the selected piece
  deselect            clear the selection
  reset               restart the game
  delete              delete the game
  png <file>          save the rendered board
  watch               stream game events`

func main() {
	addr := flag.String("addr", envDefault("BOARD_ADDR", "http://localhost:8080"), "board server base URL")
	gameID := flag.String("game", os.Getenv("BOARD_GAME"), "game id")
	timeout := flag.Duration("timeout", 8*time.Second, "request timeout")
	maxConns := flag.Int("max-conns", 4, "max connections to the server")
	var headers headerFlags
	flag.Var(&headers, "H", "extra request header \"Name: value\" (repeatable)")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	hp, err := boardclient.StaticHeaders(headers)
	if err != nil {
		log.Fatalf("-H: %v", err)
	}
	client := boardclient.NewClient(*addr,
		boardclient.WithTimeout(*timeout),
		boardclient.WithMaxConnsPerHost(*maxConns),
		boardclient.WithHeaderProvider(hp),
	)
	cmd, rest := strings.ToLower(args[0]), args[1:]

	if cmd == "watch" {
		if err := watch(client, *gameID); err != nil {
			log.Fatalf("watch: %v", err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	if err := run(ctx, client, cmd, *gameID, rest); err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func run(ctx context.Context, c *boardclient.Client, cmd, id string, args []string) error {
	needGame := func() error {
		if strings.TrimSpace(id) == "" {
			return errors.New("-game is required")
		}
		return nil
	}

	switch cmd {
	case "new":
		st, err := c.Create(ctx, nil)
		if err != nil {
			return err
		}
		fmt.Println(st.ID)
		printState(st)
		return nil
	case "list":
		ids, err := c.List(ctx)
		if err != nil {
			return err
		}
		for _, g := range ids {
			fmt.Println(g)
		}
		return nil
	}

	if err := needGame(); err != nil {
		return err
	}
	switch cmd {
	case "show":
		st, err := c.Get(ctx, id)
		if err != nil {
			return err
		}
		printState(st)
	case "select":
		if len(args) != 1 {
			return errors.New("usage: select <id|square>")
		}
		var (
			resp *dto.SelectResponse
			err  error
		)
		if n, perr := strconv.Atoi(args[0]); perr == nil {
			resp, err = c.Select(ctx, id, n)
		} else {
			resp, err = c.SelectAt(ctx, id, args[0])
		}
		if err != nil {
			return err
		}
		if len(resp.Moves) == 0 {
			fmt.Println("no legal moves")
			return nil
		}
		fmt.Println("moves:", strings.Join(resp.Moves, " "))
	case "move":
		if len(args) != 1 {
			return errors.New("usage: move <square>")
		}
		resp, err := c.Move(ctx, id, args[0])
		if err != nil {
			return err
		}
		if resp.Move != nil {
			fmt.Println(resp.Move.UCI)
		}
		fmt.Println(resp.Status.Text)
	case "deselect":
		resp, err := c.Deselect(ctx, id)
		if err != nil {
			return err
		}
		fmt.Println(resp.Status.Text)
	case "reset":
		st, err := c.Reset(ctx, id)
		if err != nil {
			return err
		}
		printState(st)
	case "delete":
		return c.Delete(ctx, id)
	case "png":
		if len(args) != 1 {
			return errors.New("usage: png <file>")
		}
		raw, err := c.BoardPNG(ctx, id)
		if err != nil {
			return err
		}
		return os.WriteFile(args[0], raw, 0o644)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func watch(c *boardclient.Client, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("-game is required")
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events, err := c.WatchEvents(ctx, id)
	if err != nil {
		return err
	}
	for ev := range events {
		line := fmt.Sprintf("%s %-10s", ev.At.Format(time.TimeOnly), ev.Kind)
		if ev.Move != nil {
			line += " " + ev.Move.UCI
		}
		if ev.Status.Text != "" {
			line += "  " + ev.Status.Text
		}
		fmt.Println(line)
	}
	return nil
}

// printState draws the board as text, rank 8 at the top.
func printState(st *dto.GameState) {
	var grid [8][8]byte
	for r := range grid {
		for f := range grid[r] {
			grid[r][f] = '.'
		}
	}
	for _, p := range st.Pieces {
		if len(p.Square) != 2 {
			continue
		}
		f, r := int(p.Square[0]-'a'), int(p.Square[1]-'1')
		if f < 0 || f > 7 || r < 0 || r > 7 {
			continue
		}
		grid[r][f] = pieceLetter(p)
	}
	for r := 7; r >= 0; r-- {
		fmt.Printf("%d %s\n", r+1, strings.Join(strings.Split(string(grid[r][:]), ""), " "))
	}
	fmt.Println("  a b c d e f g h")
	fmt.Println(st.Status.Text)
}

func pieceLetter(p dto.Piece) byte {
	letters := map[string]byte{"pawn": 'p', "rook": 'r', "knight": 'n', "bishop": 'b', "queen": 'q', "king": 'k'}
	b, ok := letters[p.Type]
	if !ok {
		return '?'
	}
	if p.Color == "white" {
		b -= 'a' - 'A'
	}
	return b
}

type headerFlags []string

func (h *headerFlags) String() string { return strings.Join(*h, ", ") }

func (h *headerFlags) Set(v string) error {
	*h = append(*h, v)
	return nil
}

func envDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
