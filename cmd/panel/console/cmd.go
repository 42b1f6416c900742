// Interactive board simulator: press buttons, fake host state, watch display.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/temoto/panel/cmd/panel/subcmd"
	"github.com/temoto/panel/helpers/cli"
	"github.com/temoto/panel/internal/button"
	"github.com/temoto/panel/internal/host"
	"github.com/temoto/panel/internal/state"
)

const usage = `syntax: commands separated by whitespace
- BUTTON       press and release: center right left down up reset
- egg          press diagnostic chord
- state=NAME   host state: other building building_sd building_onboard heat_shutdown
- percent=N    build progress, -1 unknown
- waiting=BOOL host command queue waits
- tick         run one board cycle
- lock unlock
- reset-lcd
- show         print display
`

var Mod = subcmd.Mod{Name: "console", Main: Main}

func Main(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	g.MustInit(ctx, config)
	g.Log.Debugf("config=%+v", g.Config)
	if g.Static == nil {
		return errors.Errorf("console needs host.enable=false")
	}

	c, err := newConsole(g, os.Stdout)
	if err != nil {
		return err
	}
	c.show()
	cli.MainLoop("panel-console", g.Stop, c.execLine, c.complete)
	return nil
}

type console struct {
	g        *state.Global
	w        io.Writer
	egg      button.Mask
	suggests []prompt.Suggest
}

func newConsole(g *state.Global, w io.Writer) (*console, error) {
	egg, err := g.Config.EggMask()
	if err != nil {
		return nil, err
	}
	c := &console{g: g, w: w, egg: egg}
	words := []string{"egg", "tick", "lock", "unlock", "reset-lcd", "show", "help",
		"state=building", "state=other", "percent=", "waiting=true", "waiting=false"}
	for b := button.Button(0); int(b) < button.Count; b++ {
		if b != button.ButtonEgg {
			words = append(words, b.String())
		}
	}
	sort.Strings(words)
	for _, word := range words {
		c.suggests = append(c.suggests, prompt.Suggest{Text: word})
	}
	return c, nil
}

func (self *console) complete(d prompt.Document) []prompt.Suggest {
	return prompt.FilterHasPrefix(self.suggests, d.GetWordBeforeCursor(), true)
}

func (self *console) execLine(line string) {
	if err := self.exec(line); err != nil {
		self.g.Log.Error(errors.ErrorStack(err))
	}
	self.show()
}

func (self *console) exec(line string) error {
	for _, word := range strings.Fields(line) {
		if err := self.execWord(word); err != nil {
			return errors.Annotatef(err, "word=%s", word)
		}
	}
	return nil
}

func (self *console) execWord(word string) error {
	g := self.g
	b := g.Board()
	key, value := word, ""
	if i := strings.IndexByte(word, '='); i >= 0 {
		key, value = word[:i], word[i+1:]
	}

	switch key {
	case "help", "/help":
		fmt.Fprint(self.w, usage)
	case "tick":
		b.Tick()
	case "lock":
		b.Lock()
	case "unlock":
		b.Unlock()
	case "reset-lcd":
		b.ResetLCD()
	case "show":
	case "egg":
		self.press(self.egg)
	case "state":
		s, err := host.ParseState(value)
		if err != nil {
			return err
		}
		g.Static.SetState(s)
		b.Tick()
	case "percent":
		p, err := strconv.Atoi(value)
		if err != nil {
			return errors.NotValidf("percent=%s", value)
		}
		g.Static.SetBuildPercentage(p)
		b.Tick()
	case "waiting":
		w, err := strconv.ParseBool(value)
		if err != nil {
			return errors.NotValidf("waiting=%s", value)
		}
		g.Static.SetWaiting(w)
	default:
		btn, err := button.Parse(word)
		if err != nil {
			return err
		}
		self.press(btn.Mask())
	}
	return nil
}

// press holds all buttons in mask for one scan, then releases and ticks.
func (self *console) press(m button.Mask) {
	b := self.g.Board()
	arr, _ := self.g.Input()
	for btn := button.Button(0); int(btn) < button.Count; btn++ {
		if m.Has(btn) {
			arr.Press(btn)
		}
	}
	b.DoInterrupt()
	for btn := button.Button(0); int(btn) < button.Count; btn++ {
		if m.Has(btn) {
			arr.Release(btn)
		}
	}
	b.DoInterrupt()
	b.Tick()
}

func (self *console) show() {
	d := self.g.MustTextDisplay()
	cols, rows := d.Size()
	border := "+" + strings.Repeat("-", int(cols)) + "+"
	fmt.Fprintln(self.w, border)
	for r := uint8(0); r < rows; r++ {
		fmt.Fprintf(self.w, "|%s|\n", d.Line(r))
	}
	fmt.Fprintln(self.w, border)
}
