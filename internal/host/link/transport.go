package link

import (
	"context"

	"github.com/temoto/panel/log2"
)

// Transporter contract:
// - Init fails only with invalid config, ignores network errors
// - SendCommand returns false when message was not handed to network, caller retries
// - application may start without network available
type Transporter interface {
	Init(ctx context.Context, log *log2.Log, config Config, onReport ReportCallback) error
	SendCommand(payload []byte) bool
	Close()
}

type ReportCallback func(payload []byte)
