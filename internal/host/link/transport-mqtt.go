package link

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
	"github.com/temoto/panel/helpers"
	"github.com/temoto/panel/log2"
)

const defaultPublishTimeout = 10 * time.Second

type transportMqtt struct {
	log      *log2.Log
	onReport ReportCallback
	m        mqtt.Client
	mopt     *mqtt.ClientOptions

	topicConnect string
	topicReport  string
	topicCommand string
}

func (self *transportMqtt) Init(ctx context.Context, log *log2.Log, config Config, onReport ReportCallback) error {
	if config.MqttBroker == "" {
		return errors.NotValidf("host.mqtt_broker empty")
	}
	self.log = log
	mqtt.ERROR = log
	mqtt.CRITICAL = log
	mqtt.WARN = log

	clientId := config.ClientID
	if clientId == "" {
		clientId = "panel"
	}
	prefix := config.TopicPrefix
	if prefix == "" {
		prefix = clientId
	}
	self.onReport = onReport
	self.topicConnect = fmt.Sprintf("%s/c", prefix)
	self.topicReport = fmt.Sprintf("%s/r/state", prefix)
	self.topicCommand = fmt.Sprintf("%s/w/cmd", prefix)
	keepAlive := helpers.IntSecondDefault(config.KeepaliveSec, 60*time.Second)
	pingTimeout := helpers.IntSecondDefault(config.KeepaliveSec/2, 30*time.Second)

	self.mopt = mqtt.NewClientOptions().
		AddBroker(config.MqttBroker).
		SetBinaryWill(self.topicConnect, []byte{0x00}, 1, true).
		SetCleanSession(true).
		SetClientID(clientId).
		SetDefaultPublishHandler(self.messageHandler).
		SetKeepAlive(keepAlive).
		SetPingTimeout(pingTimeout).
		SetOrderMatters(false).
		SetAutoReconnect(true).
		SetConnectRetryInterval(keepAlive / 2).
		SetOnConnectHandler(self.onConnectHandler).
		SetConnectionLostHandler(self.connectLostHandler).
		SetConnectRetry(true)
	self.m = mqtt.NewClient(self.mopt)
	// with ConnectRetry the token completes only after first successful connect
	if token := self.m.Connect(); token.Error() != nil {
		self.log.Errorf("mqtt connect err=%v", token.Error())
	}
	return nil
}

func (self *transportMqtt) Close() {
	if self.m == nil {
		return
	}
	if token := self.m.Unsubscribe(self.topicReport); token.WaitTimeout(time.Second) && token.Error() != nil {
		self.log.Errorf("mqtt unsubscribe err=%v", token.Error())
	}
	self.m.Disconnect(250)
}

func (self *transportMqtt) SendCommand(payload []byte) bool {
	if !self.m.IsConnectionOpen() {
		return false
	}
	token := self.m.Publish(self.topicCommand, 1, false, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		self.log.Errorf("mqtt publish timeout topic=%s", self.topicCommand)
		return false
	}
	if err := token.Error(); err != nil {
		self.log.Errorf("mqtt publish topic=%s err=%v", self.topicCommand, err)
		return false
	}
	return true
}

func (self *transportMqtt) messageHandler(c mqtt.Client, msg mqtt.Message) {
	payload := msg.Payload()
	self.log.Debugf("mqtt income topic=%s payload=%x", msg.Topic(), payload)
	if msg.Topic() == self.topicReport {
		self.onReport(payload)
	}
}

func (self *transportMqtt) connectLostHandler(c mqtt.Client, err error) {
	self.log.Infof("mqtt disconnect err=%v", err)
}

func (self *transportMqtt) onConnectHandler(c mqtt.Client) {
	self.log.Infof("mqtt connect")
	if token := c.Subscribe(self.topicReport, 1, nil); token.Wait() && token.Error() != nil {
		self.log.Errorf("mqtt subscribe topic=%s err=%v", self.topicReport, token.Error())
		return
	}
	c.Publish(self.topicConnect, 1, true, []byte{0x01})
}
