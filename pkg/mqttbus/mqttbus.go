package mqttbus

import (
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = time.Second
	deliverTimeout = 10 * time.Millisecond
)

type Options struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// Bus delivers the payloads of subscribed topics onto channels.  The paho client calls handlers
// from its own goroutines; the channels hand the payloads over to whoever owns the state.
//
// Subscriptions are registered before Connect and re-established on every (re)connect.
type Bus struct {
	client mqtt.Client
	broker string
	qos    byte

	lock sync.Mutex
	subs map[string]chan<- []byte
}

func New(opts Options) *Bus {
	b := &Bus{
		broker: opts.Broker,
		qos:    opts.QoS,
		subs:   map[string]chan<- []byte{},
	}

	co := mqtt.NewClientOptions()
	co.AddBroker(opts.Broker)
	co.SetClientID(opts.ClientID)
	co.SetUsername(opts.Username)
	co.SetPassword(opts.Password)
	co.SetAutoReconnect(true)
	co.SetConnectRetry(true)
	co.SetConnectRetryInterval(5 * time.Second)
	// Keep per-topic delivery order.
	co.SetOrderMatters(true)
	co.OnConnect = b.onConnect
	co.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Printf("MQTT connection lost: %v", err)
	}
	b.client = mqtt.NewClient(co)
	return b
}

// Subscribe sends every payload published on topic to ch, in order.  Several sources may share
// one channel.
func (b *Bus) Subscribe(topic string, ch chan<- []byte) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.subs[topic] = ch
}

// Connect starts connecting.  If the broker isn't reachable within the timeout the client keeps
// retrying in the background.
func (b *Bus) Connect() error {
	token := b.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		log.Printf("MQTT broker %s not reachable yet, retrying in the background", b.broker)
		return nil
	}
	return errors.Wrapf(token.Error(), "connecting to MQTT broker %s", b.broker)
}

func (b *Bus) onConnect(client mqtt.Client) {
	log.Println("Connected to MQTT broker", b.broker)
	b.lock.Lock()
	defer b.lock.Unlock()
	for topic, ch := range b.subs {
		topic := topic
		token := client.Subscribe(topic, b.qos, handler(ch))
		go func() {
			token.Wait()
			if err := token.Error(); err != nil {
				log.Printf("Failed to subscribe to %s: %v", topic, err)
				return
			}
			log.Println("Subscribed to topic:", topic)
		}()
	}
}

func (b *Bus) Publish(topic string, payload []byte) error {
	token := b.client.Publish(topic, b.qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.Errorf("timed out publishing to %s", topic)
	}
	return errors.Wrapf(token.Error(), "publishing to %s", topic)
}

func (b *Bus) Close() {
	b.client.Disconnect(250)
}

func handler(ch chan<- []byte) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		// The payload buffer belongs to the client; take a copy before handing it on.
		payload := append([]byte(nil), msg.Payload()...)
		deliver(ch, msg.Topic(), payload)
	}
}

// deliver hands the payload to the consumer, dropping it if the consumer has fallen behind so
// that a stalled consumer can't wedge the MQTT client.
func deliver(ch chan<- []byte, topic string, payload []byte) bool {
	select {
	case ch <- payload:
		return true
	default:
	}
	timer := time.NewTimer(deliverTimeout)
	defer timer.Stop()
	select {
	case ch <- payload:
		return true
	case <-timer.C:
		fmt.Println("Dropping message on", topic, "- consumer is behind")
		return false
	}
}
