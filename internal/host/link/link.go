// Package link connects the panel to the machine host over MQTT.
//
// Link contract:
// - Init fails only with invalid config, network issues are ignored
// - StopBuild and ResetUserInputTimeout block at most for queue write,
//   commands are delivered in background, at least once
// - host reports are not queued, only latest one matters
// - report older than ReportTimeout means host is gone: StateOther, not waiting
package link

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/atomic_clock"
	"github.com/temoto/panel/helpers"
	"github.com/temoto/panel/internal/host"
	"github.com/temoto/panel/log2"
	"github.com/temoto/spq"
)

const (
	DefaultReportTimeout = 10 * time.Second
	// user input notifications more often than this are coalesced
	userInputInterval = time.Second
)

type Config struct {
	Enabled       bool
	MqttBroker    string
	ClientID      string
	TopicPrefix   string
	PersistPath   string
	ReportTimeout time.Duration
	KeepaliveSec  int
	LogDebug      bool
}

type Stat struct {
	Reports  uint32
	Invalid  uint32
	Commands uint32
	Retries  uint32
}

type Link struct { //nolint:maligned
	config    Config
	log       *log2.Log
	transport Transporter
	q         *spq.Queue
	alive     *alive.Alive
	backoff   helpers.Backoff
	now       func() int64

	state      int32
	percent    int32
	waiting    uint32
	lastReport atomic_clock.Clock
	lastInput  atomic_clock.Clock
	stat       Stat
}

var (
	_ host.Host         = &Link{}
	_ host.CommandQueue = &Link{}
	_ host.Progress     = &Link{}
)

// clockZero is the origin for reading atomic_clock values through Sub.
var clockZero atomic_clock.Clock

func New() *Link { return &Link{} }

// NewWithTransporter is for tests and alternative transports.
func NewWithTransporter(trans Transporter) *Link {
	return &Link{transport: trans}
}

// SetClock replaces time source, nanoseconds. Call before Init.
func (self *Link) SetClock(now func() int64) { self.now = now }

func (self *Link) Init(ctx context.Context, log *log2.Log, config Config) error {
	self.config = config
	self.log = log
	if self.config.LogDebug {
		self.log.SetLevel(log2.LDebug)
	}
	if self.config.ReportTimeout <= 0 {
		self.config.ReportTimeout = DefaultReportTimeout
	}
	if self.now == nil {
		self.now = atomic_clock.Source
	}
	atomic.StoreInt32(&self.percent, -1)
	self.backoff = helpers.Backoff{
		Min: 100 * time.Millisecond,
		Max: 30 * time.Second,
		K:   2,
	}
	self.alive = alive.NewAlive()
	if !self.config.Enabled {
		return nil
	}
	if self.config.PersistPath == "" {
		return errors.NotValidf("host.persist_path empty")
	}

	// test code sets .transport
	if self.transport == nil { // production path
		self.transport = &transportMqtt{}
	}
	if err := self.transport.Init(ctx, log, self.config, self.onReport); err != nil {
		return errors.Annotate(err, "host link transport")
	}

	var err error
	self.q, err = spq.Open(self.config.PersistPath)
	if err != nil {
		return errors.Annotate(err, "host link queue")
	}
	self.alive.Add(1)
	go self.qworker()
	return nil
}

// Close stops delivery, commands left in persistent queue are sent after restart.
func (self *Link) Close() {
	if self.alive == nil {
		return
	}
	self.alive.Stop()
	if self.q != nil {
		if err := self.q.Close(); err != nil {
			self.log.Errorf("host link queue close err=%v", err)
		}
	}
	self.alive.Wait()
	if self.q != nil {
		self.transport.Close()
	}
}

func (self *Link) Stat() Stat {
	return Stat{
		Reports:  atomic.LoadUint32(&self.stat.Reports),
		Invalid:  atomic.LoadUint32(&self.stat.Invalid),
		Commands: atomic.LoadUint32(&self.stat.Commands),
		Retries:  atomic.LoadUint32(&self.stat.Retries),
	}
}

func (self *Link) State() host.State {
	if !self.fresh() {
		return host.StateOther
	}
	return host.State(atomic.LoadInt32(&self.state)).Normalize()
}

func (self *Link) IsWaiting() bool {
	return self.fresh() && atomic.LoadUint32(&self.waiting) != 0
}

func (self *Link) BuildPercentage() (uint8, bool) {
	p := atomic.LoadInt32(&self.percent)
	if !self.fresh() || p < 0 || p >= 100 {
		return 0, false
	}
	return uint8(p), true
}

func (self *Link) StopBuild() {
	if err := self.qpushCommand(CommandStopBuild); err != nil {
		self.log.Errorf("host link stop build err=%v", errors.ErrorStack(err))
	}
}

func (self *Link) ResetUserInputTimeout() {
	now := self.now()
	if !self.lastInput.IsZero() && time.Duration(now)-self.lastInput.Sub(&clockZero) < userInputInterval {
		return
	}
	self.lastInput.Set(now)
	if err := self.qpushCommand(CommandUserInput); err != nil {
		self.log.Errorf("host link user input err=%v", errors.ErrorStack(err))
	}
}

func (self *Link) fresh() bool {
	if self.lastReport.IsZero() {
		return false
	}
	return time.Duration(self.now())-self.lastReport.Sub(&clockZero) < self.config.ReportTimeout
}

func (self *Link) onReport(payload []byte) {
	var r HostReport
	if err := proto.Unmarshal(payload, &r); err != nil {
		atomic.AddUint32(&self.stat.Invalid, 1)
		self.log.Errorf("host report payload=%x err=%v", payload, err)
		return
	}
	atomic.AddUint32(&self.stat.Reports, 1)
	percent := int32(-1)
	if r.Percent < 100 {
		percent = int32(r.Percent)
	}
	var waiting uint32
	if r.Waiting {
		waiting = 1
	}
	prev := host.State(atomic.SwapInt32(&self.state, r.State))
	atomic.StoreInt32(&self.percent, percent)
	atomic.StoreUint32(&self.waiting, waiting)
	self.lastReport.Set(self.now())
	if state := host.State(r.State).Normalize(); state != prev.Normalize() {
		self.log.Debugf("host state %s -> %s", prev.Normalize(), state)
	}
}

func (self *Link) qpushCommand(kind CommandKind) error {
	if self.q == nil {
		self.log.Debugf("host link disabled, drop command=%s", kind)
		return nil
	}
	c := &PanelCommand{Kind: kind, Time: self.now()}
	b, err := proto.Marshal(c)
	if err != nil {
		return errors.Annotatef(err, "marshal command=%s", kind)
	}
	return errors.Annotatef(self.q.Push(b), "queue command=%s", kind)
}

func (self *Link) qworker() {
	defer self.alive.Done()
	stopch := self.alive.StopChan()
	for {
		select {
		case <-time.After(self.backoff.DelayBefore()):
		case <-stopch:
			return
		}

		box, err := self.q.Peek()
		switch err {
		case nil:
			b := box.Bytes()
			sent := self.qsend(b)
			if sent {
				err = self.q.Delete(box)
			} else {
				atomic.AddUint32(&self.stat.Retries, 1)
				err = self.q.DeletePush(box)
			}
			if err != nil {
				self.log.Errorf("host link queue b=%x sent=%t err=%v", b, sent, err)
			}
			self.backoff.Update(sent)

		case spq.ErrClosed:
			select {
			case <-stopch: // success path
			default:
				self.log.Errorf("CRITICAL host link queue closed unexpectedly")
			}
			return

		default:
			self.log.Errorf("CRITICAL host link queue err=%v", err)
			self.backoff.Failure()
		}
	}
}

// qsend returns false when retry may help.
func (self *Link) qsend(b []byte) bool {
	var c PanelCommand
	if err := proto.Unmarshal(b, &c); err != nil || c.Kind == CommandInvalid {
		self.log.Errorf("host link queue garbage b=%x err=%v", b, err)
		return true // retry will not help
	}
	if !self.transport.SendCommand(b) {
		return false
	}
	atomic.AddUint32(&self.stat.Commands, 1)
	self.log.Debugf("host link sent command=%s", c.Kind)
	return true
}
