package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/config"
	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/gamepad"
	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/joystick"
	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/lifecycle"
	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/mqttbus"
	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/msgs"
)

// joybridge publishes a locally attached DualShock4 as Joy messages, plus a Twist from the
// sticks, so the controller can be driven without a separate teleop stack.
func main() {
	app := cli.NewApp()
	app.Name = "joybridge"
	app.Usage = "publish a local gamepad to the controller's topics"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config",
			Usage:  "controller config file, for the broker, topics and max input power",
			EnvVar: "ROBO_CONFIG",
		},
		cli.StringFlag{
			Name:   "device",
			Value:  "/dev/input/js0",
			EnvVar: "JOYSTICK_DEVICE",
		},
		cli.DurationFlag{
			Name:  "twist-interval",
			Value: 50 * time.Millisecond,
		},
		cli.Float64Flag{
			Name:  "expo",
			Value: 1.6,
			Usage: "stick response curve; 1 is linear",
		},
	}
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if cfg.MQTT.Broker == "" {
		return cli.NewExitError("joybridge needs an MQTT broker", 1)
	}

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hook Ctrl-C etc.
	lifecycle.CancelOnSignal(cancel)

	bus := mqttbus.New(mqttbus.Options{
		Broker:   cfg.MQTT.Broker,
		ClientID: cfg.Node + "_joybridge",
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
		QoS:      cfg.MQTT.QoS,
	})
	if err := bus.Connect(); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer bus.Close()

	// Wait for the joystick and kick off a background thread to read from it.
	joystickEvents := initJoystick(ctx, cancel, c.GlobalString("device"))

	state := joystick.NewState()
	ticker := time.NewTicker(c.GlobalDuration("twist-interval"))
	defer ticker.Stop()
	expo := c.GlobalFloat64("expo")

	publish := func(topic string, msg interface{}) {
		payload, err := msgs.Encode(msg)
		if err != nil {
			fmt.Println("Failed to encode", topic, err)
			return
		}
		if err := bus.Publish(topic, payload); err != nil {
			fmt.Println("Failed to publish:", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			// Leave the robot stopped, with the power limit back at half.
			publish(cfg.Topics.CmdVel, &msgs.Twist{})
			publish(cfg.Topics.Joy, gamepad.Blank())
			return nil
		case je, ok := <-joystickEvents:
			if !ok {
				return cli.NewExitError("joystick events channel closed", 1)
			}
			if state.Apply(je) {
				publish(cfg.Topics.Joy, state.Joy())
			}
		case <-ticker.C:
			publish(cfg.Topics.CmdVel, sticksToTwist(state.Joy(), cfg.Power.MaxInput, expo))
		}
	}
}

// sticksToTwist maps left stick up/down to forward speed and right stick left/right to turning,
// both scaled so that full deflection asks for maxInput.
func sticksToTwist(j *msgs.Joy, maxInput, expo float64) *msgs.Twist {
	throttle := applyExpo(float64(j.Axes[gamepad.AxisLStickY]), expo)
	rotation := applyExpo(float64(j.Axes[gamepad.AxisRStickX]), expo)
	return &msgs.Twist{
		Linear:  msgs.Vector3{X: throttle * maxInput},
		Angular: msgs.Vector3{Z: rotation * maxInput},
	}
}

func applyExpo(value float64, expo float64) float64 {
	absVal := math.Abs(value)
	absExpo := math.Pow(absVal, expo)
	signedExpo := math.Copysign(absExpo, value)
	return signedExpo
}

func initJoystick(ctx context.Context, cancel context.CancelFunc, jDev string) chan *joystick.Event {
	joystickEvents := make(chan *joystick.Event)
	firstLog := true
	for ctx.Err() == nil {
		j, err := joystick.NewJoystick(jDev)
		if err != nil {
			if firstLog {
				fmt.Printf("Waiting for joystick: %v.\n", err)
				firstLog = false
			}
			time.Sleep(1 * time.Second)
			continue
		}

		fmt.Printf("Opened joystick\n")
		go func() {
			defer cancel()
			err := j.Stream(ctx, joystickEvents)
			fmt.Printf("Joystick failed: %v\n", err)
		}()
		break
	}
	return joystickEvents
}
