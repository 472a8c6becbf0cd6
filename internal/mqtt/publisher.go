// Package mqtt publishes relay changes of the simulated controller to an
// MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"irrigation_panel/internal/config"
	"irrigation_panel/internal/logger"
	"irrigation_panel/internal/service"
)

const (
	queueSize      = 100
	publishTimeout = 5 * time.Second
	qos            = 1
)

// ErrQueueFull is returned when a status cannot be queued for publishing.
var ErrQueueFull = errors.New("mqtt status queue full")

// client is the part of paho.Client used by the publisher.
type client interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Publisher implements service.StatusPublisher. PublishStatus only queues the
// message; Start drains the queue in the background.
type Publisher struct {
	client client
	prefix string
	log    *logger.Logger
	queue  chan service.ChannelStatus

	wg sync.WaitGroup
}

// statusMessage is the JSON payload of a status topic.
type statusMessage struct {
	Channel   int       `json:"channel"`
	On        bool      `json:"on"`
	Master    bool      `json:"master"`
	Timestamp time.Time `json:"timestamp"`
}

// New builds a publisher for cfg. It does not connect.
func New(cfg config.MQTTConfig, log *logger.Logger) *Publisher {
	log = log.Named("mqtt")

	opts := paho.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(60 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Warnw("mqtt_connection_lost", "err", err)
	})
	opts.SetOnConnectHandler(func(paho.Client) {
		log.Infow("mqtt_connected", "broker", cfg.Broker, "port", cfg.Port)
	})

	return newPublisher(paho.NewClient(opts), cfg.Topic, log)
}

func newPublisher(c client, prefix string, log *logger.Logger) *Publisher {
	if prefix == "" {
		prefix = "irrigation"
	}
	return &Publisher{
		client: c,
		prefix: prefix,
		log:    log,
		queue:  make(chan service.ChannelStatus, queueSize),
	}
}

// Connect establishes the broker connection.
func (p *Publisher) Connect() error {
	if token := p.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect to mqtt broker: %w", token.Error())
	}
	return nil
}

// Start publishes queued statuses until ctx is cancelled.
func (p *Publisher) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case st := <-p.queue:
				if err := p.publish(st); err != nil {
					p.log.Warnw("mqtt_publish_failed", "channel", st.Channel, "err", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Close waits for the publishing goroutine and disconnects.
func (p *Publisher) Close() {
	p.wg.Wait()
	p.client.Disconnect(250)
}

// PublishStatus queues a relay change without blocking.
func (p *Publisher) PublishStatus(ctx context.Context, st service.ChannelStatus) error {
	select {
	case p.queue <- st:
		return nil
	default:
		return ErrQueueFull
	}
}

// Topic returns the status topic of a channel.
func (p *Publisher) Topic(channel int) string {
	return p.prefix + "/status/" + strconv.Itoa(channel)
}

func (p *Publisher) publish(st service.ChannelStatus) error {
	payload, err := json.Marshal(statusMessage{
		Channel:   st.Channel,
		On:        st.On,
		Master:    st.Channel == 0,
		Timestamp: st.At,
	})
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}

	token := p.client.Publish(p.Topic(st.Channel), qos, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timed out", p.Topic(st.Channel))
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", p.Topic(st.Channel), err)
	}
	p.log.Debugw("mqtt_published", "topic", p.Topic(st.Channel), "on", st.On)
	return nil
}
