// Daemon mode: drive the board from hardware and host link until signal.
package run

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/temoto/panel/cmd/panel/subcmd"
	"github.com/temoto/panel/internal/state"
)

var Mod = subcmd.Mod{Name: "run", Main: Main}

const stopTimeout = 5 * time.Second

func Main(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	g.MustInit(ctx, config)
	g.Log.Debugf("config=%+v", g.Config)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			g.Log.Infof("signal=%v stopping", sig)
			g.Stop()
		case <-g.Alive.StopChan():
		}
	}()

	g.Run()
	subcmd.SdNotify(daemon.SdNotifyReady)
	g.Log.Debugf("panel init complete")

	<-g.Alive.StopChan()
	subcmd.SdNotify(daemon.SdNotifyStopping)
	if !g.StopWait(stopTimeout) {
		return errors.Errorf("stop timeout=%v", stopTimeout)
	}
	return nil
}
