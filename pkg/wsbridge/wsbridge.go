// Package wsbridge lets a browser or laptop teleop client publish twist and joy messages over a
// websocket instead of the MQTT broker.
//
// Each text frame is an envelope naming the topic:
//
//	{"topic": "cmd_vel2_2_2", "msg": {"linear": {"x": 40}, "angular": {"z": 0}}}
//
// The inner message is forwarded untouched to the channel routed for that topic.
package wsbridge

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const (
	deliverTimeout = 10 * time.Millisecond

	// MaxFrameSize bounds a single teleop frame.  Larger frames close the connection.
	MaxFrameSize = 64 << 10
)

type Envelope struct {
	Topic string          `json:"topic"`
	Msg   json.RawMessage `json:"msg"`
}

type Bridge struct {
	upgrader websocket.Upgrader
	secret   []byte

	lock   sync.Mutex
	routes map[string]chan<- []byte
}

// New returns a bridge.  If jwtSecret is non-empty every connection must present an HS256 token
// signed with it.
func New(jwtSecret string) *Bridge {
	b := &Bridge{
		routes: map[string]chan<- []byte{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Teleop pages are served from wherever the operator likes.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	if jwtSecret != "" {
		b.secret = []byte(jwtSecret)
	}
	return b
}

func (b *Bridge) Route(topic string, ch chan<- []byte) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.routes[topic] = ch
}

func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := b.authorize(r); err != nil {
		log.Printf("Rejected teleop connection from %s: %v", r.RemoteAddr, err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}
	log.Println("Teleop client connected:", r.RemoteAddr)
	go b.readLoop(conn)
}

func (b *Bridge) readLoop(conn *websocket.Conn) {
	defer conn.Close()
	conn.SetReadLimit(MaxFrameSize)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Teleop client %s failed: %v", conn.RemoteAddr(), err)
			}
			return
		}
		if err := b.forward(data); err != nil {
			log.Printf("Dropping teleop frame: %v", err)
		}
	}
}

func (b *Bridge) forward(data []byte) error {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return errors.Wrap(err, "decoding envelope")
	}
	b.lock.Lock()
	ch, ok := b.routes[env.Topic]
	b.lock.Unlock()
	if !ok {
		return errors.Errorf("no route for topic %q", env.Topic)
	}
	if len(env.Msg) == 0 {
		return errors.Errorf("empty message on %q", env.Topic)
	}

	timer := time.NewTimer(deliverTimeout)
	defer timer.Stop()
	select {
	case ch <- []byte(env.Msg):
		return nil
	case <-timer.C:
		return errors.Errorf("consumer of %q is behind", env.Topic)
	}
}

func (b *Bridge) authorize(r *http.Request) error {
	if b.secret == nil {
		return nil
	}
	raw := r.URL.Query().Get("token")
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		raw = strings.TrimPrefix(h, "Bearer ")
	}
	if raw == "" {
		return errors.New("missing token")
	}
	_, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return b.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return errors.Wrap(err, "invalid token")
	}
	return nil
}
