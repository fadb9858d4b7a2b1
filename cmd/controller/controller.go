package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/config"
	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/dispatch"
	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/lifecycle"
	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/logsetup"
	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/motorlink"
	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/mqttbus"
	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/powerlimit"
	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/rcmode"
	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/wsbridge"
)

func main() {
	app := cli.NewApp()
	app.Name = "controller"
	app.Usage = "drive the robo2-2-2 chassis from twist and gamepad messages"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config",
			Usage:  "YAML or TOML config file; built-in defaults if empty",
			EnvVar: "ROBO_CONFIG",
		},
		cli.BoolFlag{
			Name:  "dummy",
			Usage: "print motor commands instead of sending them",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "log every drive command",
		},
	}
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	fmt.Println("---- robo2-2-2 ----")

	cfg, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if c.GlobalBool("dummy") {
		cfg.Actuation.Kind = config.ActuationDummy
	}
	logCloser := logsetup.Init(cfg.Log)
	defer logCloser.Close()
	log.Println("Using config:", cfg)

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hook Ctrl-C etc.
	lifecycle.CancelOnSignal(cancel)

	motors, err := openMotors(cfg.Actuation)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer motors.Close()

	mode := rcmode.New(cfg.Settings(), powerlimit.New(cfg.Power.MaxOutput), cfg.AuxMotorID, motors)
	mode.SetDebug(cfg.Log.Debug || c.GlobalBool("debug"))
	defer func() {
		fmt.Println("Zeroing motors for shut down")
		mode.Stop()
	}()

	twists := make(chan []byte, cfg.MQTT.Buffer)
	joys := make(chan []byte, cfg.MQTT.Buffer)

	if cfg.MQTT.Broker != "" {
		clientID := cfg.MQTT.ClientID
		if clientID == "" {
			clientID = cfg.Node
		}
		bus := mqttbus.New(mqttbus.Options{
			Broker:   cfg.MQTT.Broker,
			ClientID: clientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			QoS:      cfg.MQTT.QoS,
		})
		bus.Subscribe(cfg.Topics.CmdVel, twists)
		bus.Subscribe(cfg.Topics.Joy, joys)
		if err := bus.Connect(); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		defer bus.Close()
	}

	if cfg.Websocket.Listen != "" {
		bridge := wsbridge.New(cfg.Websocket.JWTSecret)
		bridge.Route(cfg.Topics.CmdVel, twists)
		bridge.Route(cfg.Topics.Joy, joys)
		mux := http.NewServeMux()
		mux.Handle("/teleop", bridge)
		srv := &http.Server{
			Addr:              cfg.Websocket.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Printf("Teleop websocket listening on %s", cfg.Websocket.Listen)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("Teleop websocket server failed: %v", err)
			}
		}()
		defer srv.Close()
	}

	fmt.Printf("----- %s -----\n", mode.Name())
	fmt.Println("Waiting for events...")
	err = dispatch.Loop(ctx, mode, twists, joys)
	if err != nil && ctx.Err() == nil {
		log.Printf("Dispatch loop stopped: %v", err)
	}
	return nil
}

func openMotors(cfg config.ActuationConfig) (motorlink.Interface, error) {
	switch cfg.Kind {
	case config.ActuationUDP:
		fmt.Printf("Sending motor commands from UDP port %d to %s\n", cfg.OwnPort, cfg.Destination)
		return motorlink.NewUDP(cfg.OwnPort, cfg.Destination)
	case config.ActuationSerial:
		fmt.Printf("Sending motor commands to %s at %d baud\n", cfg.SerialPort, cfg.Baud)
		return motorlink.NewSerial(cfg.SerialPort, cfg.Baud)
	case config.ActuationDummy:
		return motorlink.Dummy(), nil
	}
	return nil, errors.Errorf("unknown actuation kind %q", cfg.Kind)
}
