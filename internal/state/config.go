package state

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/temoto/panel/hardware/lcd"
	"github.com/temoto/panel/helpers"
	"github.com/temoto/panel/internal/board"
	"github.com/temoto/panel/internal/button"
	"github.com/temoto/panel/internal/host/link"
	"github.com/temoto/panel/internal/screens"
	"github.com/temoto/panel/log2"
)

const DefaultScanPeriod = 10 * time.Millisecond

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []ConfigSource `hcl:"include"`

	Panel struct { //nolint:maligned
		StackDepth       int   `hcl:"stack_depth"`
		ButtonRepeatMs   int   `hcl:"button_repeat_ms"`
		TickMs           int   `hcl:"tick_ms"`
		ScanMs           int   `hcl:"scan_ms"`
		DiagRespectsLock *bool `hcl:"diag_respects_lock"`
		Width            int   `hcl:"width"`
		Height           int   `hcl:"height"`
		LogDebug         bool  `hcl:"log_debug"`
	}

	Hardware struct {
		HD44780 struct { //nolint:maligned
			Enable        bool       `hcl:"enable"`
			Codepage      string     `hcl:"codepage"`
			PinChip       string     `hcl:"pin_chip"`
			Pinmap        lcd.PinMap `hcl:"pinmap"`
			Page1         bool       `hcl:"page1"`
			ControlBlink  bool       `hcl:"blink"`
			ControlCursor bool       `hcl:"cursor"`
		}
		LED struct {
			// cdev: green/red are line offsets on pin_chip
			// periph: green/red are gpioreg pin names
			// empty: no hardware, LEDs are mocks
			Driver    string `hcl:"driver"`
			PinChip   string `hcl:"pin_chip"`
			Green     string `hcl:"green"`
			Red       string `hcl:"red"`
			ActiveLow bool   `hcl:"active_low"`
		} `hcl:"led"`
		Input struct {
			DevInputEvent struct {
				Enable bool   `hcl:"enable"`
				Device string `hcl:"device"`
				Grab   bool   `hcl:"grab"`
			} `hcl:"dev_input_event"`
			// button name -> key code
			Keymap map[string]int `hcl:"keymap"`
			// buttons that together open diagnostics
			Egg []string `hcl:"egg"`
		}
	}

	Host struct { //nolint:maligned
		Enable           bool   `hcl:"enable"`
		MqttBroker       string `hcl:"mqtt_broker"`
		ClientID         string `hcl:"client_id"`
		TopicPrefix      string `hcl:"topic_prefix"`
		PersistPath      string `hcl:"persist_path"`
		ReportTimeoutSec int    `hcl:"report_timeout_sec"`
		KeepaliveSec     int    `hcl:"keepalive_sec"`
		LogDebug         bool   `hcl:"log_debug"`
	}

	UI struct {
		MsgIdle           string           `hcl:"msg_idle"`
		MsgMenu           string           `hcl:"msg_menu"`
		MsgBuilding       string           `hcl:"msg_building"`
		MsgBuildUnknown   string           `hcl:"msg_build_unknown"`
		MsgCancel         string           `hcl:"msg_cancel"`
		MsgYes            string           `hcl:"msg_yes"`
		MsgNo             string           `hcl:"msg_no"`
		MsgDiag           string           `hcl:"msg_diag"`
		MessageTimeoutSec int              `hcl:"message_timeout_sec"`
		XXX_Items         []MenuItemConfig `hcl:"item"`
	}

	_copy_guard sync.Mutex //nolint:unused
}

type ConfigSource struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

type MenuItemConfig struct {
	Title string `hcl:"title,key"`
	// empty message opens diagnostics
	Message string `hcl:"message"`
}

func (c *Config) BoardConfig() board.Config {
	bc := board.DefaultConfig()
	if c.Panel.Width > 0 {
		bc.Width = uint8(c.Panel.Width)
	}
	if c.Panel.Height > 0 {
		bc.Height = uint8(c.Panel.Height)
	}
	if c.Panel.StackDepth > 0 {
		bc.StackDepth = c.Panel.StackDepth
	}
	bc.ButtonRepeat = helpers.IntMillisecondDefault(c.Panel.ButtonRepeatMs, board.DefaultButtonRepeat)
	bc.MinTick = helpers.IntMillisecondDefault(c.Panel.TickMs, 0)
	if c.Panel.DiagRespectsLock != nil {
		bc.DiagRespectsLock = *c.Panel.DiagRespectsLock
	}
	return bc
}

func (c *Config) ScanPeriod() time.Duration {
	return helpers.IntMillisecondDefault(c.Panel.ScanMs, DefaultScanPeriod)
}

func (c *Config) LinkConfig() link.Config {
	return link.Config{
		Enabled:       c.Host.Enable,
		MqttBroker:    c.Host.MqttBroker,
		ClientID:      c.Host.ClientID,
		TopicPrefix:   c.Host.TopicPrefix,
		PersistPath:   c.Host.PersistPath,
		ReportTimeout: helpers.IntSecondDefault(c.Host.ReportTimeoutSec, link.DefaultReportTimeout),
		KeepaliveSec:  c.Host.KeepaliveSec,
		LogDebug:      c.Host.LogDebug,
	}
}

func (c *Config) ScreensConfig() screens.Config {
	bc := c.BoardConfig()
	sc := screens.Config{
		Width:           bc.Width,
		Height:          bc.Height,
		MsgIdle:         c.UI.MsgIdle,
		MsgMenu:         c.UI.MsgMenu,
		MsgBuilding:     c.UI.MsgBuilding,
		MsgBuildUnknown: c.UI.MsgBuildUnknown,
		MsgCancel:       c.UI.MsgCancel,
		MsgYes:          c.UI.MsgYes,
		MsgNo:           c.UI.MsgNo,
		MsgDiag:         c.UI.MsgDiag,
		MessageTimeout:  helpers.IntSecondDefault(c.UI.MessageTimeoutSec, 0),
	}
	for _, item := range c.UI.XXX_Items {
		sc.Items = append(sc.Items, screens.MenuItem{Title: item.Title, Message: item.Message})
	}
	return sc
}

// EggMask parses egg chord, default is up+down.
func (c *Config) EggMask() (button.Mask, error) {
	names := c.Hardware.Input.Egg
	if len(names) == 0 {
		return button.MaskOf(button.ButtonUp, button.ButtonDown), nil
	}
	bs := make([]button.Button, 0, len(names))
	for _, name := range names {
		b, err := button.Parse(name)
		if err != nil {
			return button.MaskNone, errors.Annotate(err, "config: hardware.input.egg")
		}
		bs = append(bs, b)
	}
	if len(bs) < 2 {
		return button.MaskNone, errors.NotValidf("config: hardware.input.egg needs at least 2 buttons, egg=%v", names)
	}
	return button.MaskOf(bs...), nil
}

func (c *Config) read(log *log2.Log, fs FullReader, source ConfigSource, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		*errs = append(*errs, errors.Errorf("config duplicate source=%s", source.Name))
		return
	}
	log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	err = hcl.Unmarshal(bs, c)
	if err != nil {
		err = errors.Annotatef(err, "config unmarshal source=%s content='%s'", source.Name, string(bs))
		*errs = append(*errs, err)
		return
	}

	var includes []ConfigSource
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		log.Fatal("code error [Must]ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		if err := osfs.SetBase(dir); err != nil {
			return nil, err
		}
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, ConfigSource{Name: name}, &errs)
	}
	return c, helpers.FoldErrors(errs)
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
