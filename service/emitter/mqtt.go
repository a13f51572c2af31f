package emitter

import (
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/khaledhikmat/exhibit-guide/model"
	"github.com/khaledhikmat/exhibit-guide/service/config"
	"github.com/khaledhikmat/exhibit-guide/service/lgr"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

type mqttService struct {
	params config.EmitterParameters
	client mqtt.Client

	mu        sync.RWMutex
	connected bool
}

// NewMQTT connects to the configured broker. The client reconnects on its own
// after the first successful connection.
func NewMQTT(params config.EmitterParameters) (IService, error) {
	svc := &mqttService{params: params}

	broker := params.MQTTBroker
	if !strings.Contains(broker, "://") {
		broker = fmt.Sprintf("tcp://%s", broker)
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(params.MQTTClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		svc.setConnected(true)
		lgr.Logger.Info("mqtt connection established", "broker", broker, "client_id", params.MQTTClientID)
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		svc.setConnected(false)
		lgr.Logger.Warn("mqtt connection lost, will auto-reconnect", "broker", broker, "error", err)
	}

	svc.client = mqtt.NewClient(opts)

	token := svc.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		// stop the background connect retries
		svc.client.Disconnect(0)
		return nil, fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		svc.client.Disconnect(0)
		return nil, fmt.Errorf("mqtt connection failed: %w", err)
	}
	svc.setConnected(true)

	return svc, nil
}

func (svc *mqttService) Emit(evt model.ExhibitEvent) error {
	if !svc.isConnected() {
		return fmt.Errorf("mqtt not connected")
	}

	payload, err := Encode(evt, svc.params.Encoding)
	if err != nil {
		return err
	}

	topic := Topic(svc.params.MQTTTopicPrefix, evt.Camera)
	token := svc.client.Publish(topic, svc.params.MQTTQoS, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}

	lgr.Logger.Debug("exhibit event published", "topic", topic, "size", len(payload))
	return nil
}

func (svc *mqttService) Close() error {
	if svc.client != nil && svc.client.IsConnected() {
		svc.client.Disconnect(250)
	}
	svc.setConnected(false)
	return nil
}

func (svc *mqttService) setConnected(v bool) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.connected = v
}

func (svc *mqttService) isConnected() bool {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.connected
}
