package link

import (
	"fmt"

	"github.com/golang/protobuf/proto"
)

type CommandKind int32

const (
	CommandInvalid   CommandKind = 0
	CommandStopBuild CommandKind = 1
	CommandUserInput CommandKind = 2
)

func (k CommandKind) String() string {
	switch k {
	case CommandStopBuild:
		return "stop_build"
	case CommandUserInput:
		return "user_input"
	}
	return fmt.Sprintf("CommandKind(%d)", int32(k))
}

// HostReport is published by host to <prefix>/r/state.
type HostReport struct {
	State   int32  `protobuf:"varint,1,opt,name=state,proto3" json:"state,omitempty"`
	Percent uint32 `protobuf:"varint,2,opt,name=percent,proto3" json:"percent,omitempty"`
	Waiting bool   `protobuf:"varint,3,opt,name=waiting,proto3" json:"waiting,omitempty"`
	// unix nanoseconds
	Time int64 `protobuf:"varint,4,opt,name=time,proto3" json:"time,omitempty"`
}

func (m *HostReport) Reset()         { *m = HostReport{} }
func (m *HostReport) String() string { return proto.CompactTextString(m) }
func (*HostReport) ProtoMessage()    {}

// PanelCommand is published by panel to <prefix>/w/cmd.
type PanelCommand struct {
	Kind CommandKind `protobuf:"varint,1,opt,name=kind,proto3,enum=panel.CommandKind" json:"kind,omitempty"`
	// panel clock nanoseconds, monotonic since panel start
	Time int64       `protobuf:"varint,2,opt,name=time,proto3" json:"time,omitempty"`
}

func (m *PanelCommand) Reset()         { *m = PanelCommand{} }
func (m *PanelCommand) String() string { return proto.CompactTextString(m) }
func (*PanelCommand) ProtoMessage()    {}
