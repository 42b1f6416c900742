package state

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/panel/helpers"
	"github.com/temoto/panel/internal/board"
	"github.com/temoto/panel/internal/host"
	"github.com/temoto/panel/internal/host/link"
	"github.com/temoto/panel/internal/screens"
	"github.com/temoto/panel/log2"
)

type Global struct {
	Alive        *alive.Alive
	BuildVersion string
	Config       *Config
	Hardware     hardware // hardware.go
	Log          *log2.Log

	Host     host.Host
	Commands host.CommandQueue
	// Link is nil when host link is disabled, Static is used instead.
	Link    *link.Link
	Static  *host.Static
	Screens *screens.Set

	board *board.Board

	_copy_guard sync.Mutex //nolint:unused
}

const ContextKey = "run/state-global"

func NewContext(log *log2.Log) (context.Context, *Global) {
	if log == nil {
		panic("code error NewContext() log=nil")
	}

	g := &Global{
		Alive: alive.NewAlive(),
		Log:   log,
	}
	ctx := context.Background()
	ctx = context.WithValue(ctx, log2.ContextKey, log)
	ctx = context.WithValue(ctx, ContextKey, g)

	return ctx, g
}

func GetGlobal(ctx context.Context) *Global {
	v := ctx.Value(ContextKey)
	if v == nil {
		panic(fmt.Sprintf("context['%s'] is nil", ContextKey))
	}
	if g, ok := v.(*Global); ok {
		return g
	}
	panic(fmt.Sprintf("context['%s'] expected type *Global actual=%#v", ContextKey, v))
}

// If `Init` fails, consider `Global` is in broken state.
func (g *Global) Init(ctx context.Context, cfg *Config) error {
	g.Config = cfg

	g.Log.Infof("build version=%s", g.BuildVersion)
	if g.Config.Panel.LogDebug {
		g.Log.SetLevel(log2.LDebug)
	}

	if err := g.initHost(ctx); err != nil {
		return errors.Annotate(err, "host init")
	}

	const initTasks = 3
	wg := sync.WaitGroup{}
	wg.Add(initTasks)
	errch := make(chan error, initTasks)
	go helpers.WrapErrChan(&wg, errch, g.initDisplay)
	go helpers.WrapErrChan(&wg, errch, g.initInput)
	go helpers.WrapErrChan(&wg, errch, g.initLEDs)
	wg.Wait()
	close(errch)
	if err := helpers.FoldErrChan(errch); err != nil {
		return err
	}

	return g.initBoard()
}

func (g *Global) MustInit(ctx context.Context, cfg *Config) {
	err := g.Init(ctx, cfg)
	if err != nil {
		g.Fatal(err)
	}
}

// Board is ready after successful Init.
func (g *Global) Board() *board.Board {
	if g.board == nil {
		g.Log.Fatal("code error Board() before Init")
	}
	return g.board
}

// Run starts tick, scan and input loops and returns immediately.
func (g *Global) Run() {
	b := g.Board()
	go b.Run(g.Alive)
	go b.RunScan(g.Alive, g.Config.ScanPeriod())

	x := &g.Hardware.Input
	if x.Source != nil {
		// input has own alive, StopWait does not wait for blocked device read
		x.alive = alive.NewAlive()
		go helpers.AliveSub(g.Alive, x.alive)
		go func() {
			err := x.Array.Run(x.alive, x.Source, x.Keymap)
			x.alive.Stop()
			if err != nil {
				g.Error(err)
				g.Stop()
			}
		}()
	}
}

func (g *Global) Error(err error, args ...interface{}) {
	if err != nil {
		if len(args) != 0 {
			msg := args[0].(string)
			args = args[1:]
			err = errors.Annotatef(err, msg, args...)
		}
		g.Log.Error(err)
	}
}

func (g *Global) Fatal(err error, args ...interface{}) {
	if err != nil {
		g.Error(err, args...)
		g.StopWait(5 * time.Second)
		g.Log.Fatal(errors.ErrorStack(err))
		os.Exit(1)
	}
}

func (g *Global) Stop() {
	g.Alive.Stop()
}

// StopWait stops loops, waits for them and releases host link.
func (g *Global) StopWait(timeout time.Duration) bool {
	g.Alive.Stop()
	ok := false
	select {
	case <-g.Alive.WaitChan():
		ok = true
	case <-time.After(timeout):
	}
	if g.Link != nil {
		g.Link.Close()
	}
	return ok
}

// DiagLines is the diagnostic screen content.
func (g *Global) DiagLines() []string {
	lines := make([]string, 0, 4)
	lines = append(lines, "v="+g.BuildVersion)
	if g.Host != nil {
		lines = append(lines, "host="+g.Host.State().String())
	}
	if g.board != nil {
		st := g.board.Stack()
		lines = append(lines, fmt.Sprintf("stack=%d/%d mask=%s", st.Depth(), st.Limit(), g.board.WaitingMask()))
	}
	if g.Link != nil {
		s := g.Link.Stat()
		lines = append(lines, fmt.Sprintf("r=%d c=%d e=%d", s.Reports, s.Commands, s.Retries))
	}
	return lines
}

func (g *Global) initHost(ctx context.Context) error {
	if g.Host != nil { // testing mode
		return nil
	}
	if !g.Config.Host.Enable {
		g.Log.Infof("host link is disabled, using static host")
		g.Static = host.NewStatic()
		g.Host, g.Commands = g.Static, g.Static
		return nil
	}

	// Link.Init gets g.Log clone, so host.log_debug doesn't affect the rest
	l := link.New()
	if err := l.Init(ctx, g.Log.Clone(log2.LInfo), g.Config.LinkConfig()); err != nil {
		return err
	}
	g.Link = l
	g.Host, g.Commands = l, l
	return nil
}

func (g *Global) initDisplay() error {
	d, err := g.TextDisplay()
	if d != nil {
		d.Clear()
	}
	return err
}

func (g *Global) initInput() error {
	_, err := g.Input()
	return err
}

func (g *Global) initLEDs() error {
	_, err := g.LEDs()
	return errors.Annotate(err, "led")
}

func (g *Global) initBoard() error {
	display, err := g.TextDisplay()
	if err != nil {
		return err
	}
	array, err := g.Input()
	if err != nil {
		return err
	}
	leds, err := g.LEDs()
	if err != nil {
		return err
	}

	g.Screens = screens.NewSet(g.Config.ScreensConfig(), g.Host, g.DiagLines)
	deps := board.Deps{
		Buttons:  array,
		Display:  display,
		Main:     g.Screens.Main,
		Build:    g.Screens.Build,
		Message:  g.Screens.Message,
		Diag:     g.Screens.Diag,
		Host:     g.Host,
		Commands: g.Commands,
		Log:      g.Log,
	}
	for i, out := range leds {
		if out != nil {
			deps.LEDs[i] = out
		}
	}
	g.board = board.New(g.Config.BoardConfig(), deps)
	g.Screens.Bind(g.board)
	g.board.Init()
	return nil
}
