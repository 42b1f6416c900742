package cli

import (
	"bytes"
	"io/ioutil"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/c-bata/go-prompt"
	"github.com/mattn/go-isatty"
)

// MainLoop runs exec for each line of interactive prompt or piped stdin.
// stop is called on termination signal before exit.
func MainLoop(tag string, stop func(), exec func(line string), complete func(d prompt.Document) []prompt.Suggest) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	go func() {
		<-signalCh
		if stop != nil {
			stop()
		}
		os.Exit(1)
	}()

	if IsInteractive() {
		prompt.New(exec, complete,
			prompt.OptionPrefix(tag+"> "),
			prompt.OptionTitle(tag),
		).Run()
		return
	}

	stdinAll, err := ioutil.ReadAll(os.Stdin)
	if err != nil {
		log.Fatal(err)
	}
	linesb := bytes.Split(stdinAll, []byte{'\n'})
	for _, lineb := range linesb {
		line := string(bytes.TrimSpace(lineb))
		if line != "" {
			exec(line)
		}
	}
}

func IsInteractive() bool { return isatty.IsTerminal(os.Stdin.Fd()) }
