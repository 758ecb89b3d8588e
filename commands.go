package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"LocalBoard/internal/collab"
	"LocalBoard/internal/export"
	"LocalBoard/internal/shape"
	"LocalBoard/internal/snapshot"
	"LocalBoard/internal/ui"
)

const helpText = `commands:
  tool pen|line|rectangle|ellipse|triangle|select|eraser
  color <name|#AARRGGBB>    size <width>
  draw x y x y ...          press at the first point, drag through the rest
  select x y | select <id>  move dx dy   recolor <color>   resize <width>
  delete   clear   undo   redo   list   status
  save <name>   load <name>   snapshots   pdf <file>
  clients (host)   sync (client)   quit`

var errQuit = errors.New("quit")

// document is the board text a coordinator can serialize.
type document interface {
	Snapshot() string
}

// console drives a board from text commands, one per line.
type console struct {
	board  *ui.Board
	host   *collab.Host   // nil on clients
	client *collab.Client // nil on the host
	doc    document
	store  snapshot.Store // nil when unavailable
	canvas shape.Rect
	out    io.Writer
	logger *zap.Logger
}

func (c *console) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(c.out, "Type 'help' for commands.")
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			err := c.exec(ctx, line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintln(c.out, "error:", err)
			}
		}
	}
}

func (c *console) close() {
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			c.logger.Warn("Failed to close snapshot store", zap.Error(err))
		}
	}
}

func (c *console) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "help", "?":
		fmt.Fprintln(c.out, helpText)
	case "quit", "exit":
		return errQuit
	case "status":
		fmt.Fprintln(c.out, c.board.Status())

	case "tool":
		if len(args) != 1 {
			return errors.New("usage: tool <name>")
		}
		t, err := ui.ParseTool(args[0])
		if err != nil {
			return err
		}
		c.board.SetTool(t)
	case "color":
		if len(args) != 1 {
			return errors.New("usage: color <color>")
		}
		col, err := shape.ParseColor(args[0])
		if err != nil {
			return err
		}
		c.board.SetColor(col)
	case "size":
		w, err := floatArg(args)
		if err != nil {
			return err
		}
		c.board.SetStroke(w)

	case "draw":
		points, err := pointArgs(args)
		if err != nil {
			return err
		}
		c.board.StartTrack(points[0])
		for _, p := range points[1:] {
			c.board.Track(p)
		}
		s, ok := c.board.StopTrack()
		if !ok {
			return errors.New("nothing drawn")
		}
		fmt.Fprintf(c.out, "drew %s %s\n", s.Kind, s.ID)
	case "select":
		return c.selectCmd(args)
	case "move":
		points, err := pointArgs(args)
		if err != nil || len(points) != 1 {
			return errors.New("usage: move dx dy")
		}
		return refused(c.board.MoveSelected(points[0]), "move")
	case "recolor":
		if len(args) != 1 {
			return errors.New("usage: recolor <color>")
		}
		col, err := shape.ParseColor(args[0])
		if err != nil {
			return err
		}
		return refused(c.board.RecolorSelected(col), "recolor")
	case "resize":
		w, err := floatArg(args)
		if err != nil {
			return err
		}
		return refused(c.board.ResizeSelected(w), "resize")
	case "delete":
		return refused(c.board.DeleteSelected(), "delete")
	case "clear":
		fmt.Fprintf(c.out, "cleared %d\n", c.board.ClearMine())
	case "undo":
		return refused(c.board.Undo(), "undo")
	case "redo":
		return refused(c.board.Redo(), "redo")
	case "list":
		lines := ui.Describe(c.board.Scene())
		if len(lines) == 0 {
			fmt.Fprintln(c.out, "(empty board)")
		}
		for _, l := range lines {
			fmt.Fprintln(c.out, l)
		}

	case "save", "load", "snapshots":
		return c.snapshotCmd(ctx, cmd, args)
	case "pdf":
		if len(args) != 1 {
			return errors.New("usage: pdf <file>")
		}
		sc := c.board.Scene()
		if err := export.ExportPDF(args[0], sc.Shapes, sc.Ghosts, export.Options{Canvas: c.canvas, Title: "LocalBoard"}); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "exported", args[0])

	case "clients":
		if c.host == nil {
			return errors.New("only the host tracks clients")
		}
		fmt.Fprintln(c.out, strings.Join(c.host.Clients(), " "))
	case "sync":
		if c.client == nil {
			return errors.New("the host is the source of truth")
		}
		c.client.Resync()

	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}

func (c *console) selectCmd(args []string) error {
	switch len(args) {
	case 1:
		if !c.board.SelectID(args[0]) {
			return fmt.Errorf("no shape %s", args[0])
		}
	case 2:
		points, err := pointArgs(args)
		if err != nil {
			return err
		}
		if !c.board.Select(points[0]) {
			return errors.New("nothing there")
		}
	default:
		return errors.New("usage: select x y | select <id>")
	}
	s, _ := c.board.Selected()
	fmt.Fprintf(c.out, "selected %s %s\n", s.Kind, s.ID)
	return nil
}

func (c *console) snapshotCmd(ctx context.Context, cmd string, args []string) error {
	if c.store == nil {
		return errors.New("no snapshot store configured")
	}
	if cmd == "snapshots" {
		names, err := c.store.List(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, strings.Join(names, " "))
		return nil
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: %s <name>", cmd)
	}
	name := args[0]

	if cmd == "save" {
		if err := c.store.Save(ctx, name, c.doc.Snapshot()); err != nil {
			return err
		}
		c.board.SetStatus("Saved " + name)
		return nil
	}

	if c.host == nil {
		return errors.New("only the host can load a board")
	}
	payload, err := c.store.Load(ctx, name)
	if err != nil {
		return err
	}
	if err := c.host.Restore(payload); err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	c.board.SetStatus("Loaded " + name)
	return nil
}

func refused(ok bool, what string) error {
	if ok {
		return nil
	}
	return fmt.Errorf("%s refused", what)
}

func floatArg(args []string) (float64, error) {
	if len(args) != 1 {
		return 0, errors.New("expected one number")
	}
	return strconv.ParseFloat(args[0], 64)
}

func pointArgs(args []string) ([]shape.Point, error) {
	if len(args) == 0 || len(args)%2 != 0 {
		return nil, errors.New("expected x y pairs")
	}
	points := make([]shape.Point, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		x, err := strconv.Atoi(args[i])
		if err != nil {
			return nil, err
		}
		y, err := strconv.Atoi(args[i+1])
		if err != nil {
			return nil, err
		}
		points = append(points, shape.Point{X: x, Y: y})
	}
	return points, nil
}
