package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/motorlink"
)

// motormock stands in for the motor controllers on the bench: it listens where the controller
// sends its frames and prints what each motor was told to do.
func main() {
	app := cli.NewApp()
	app.Name = "motormock"
	app.Usage = "print motor frames sent by the controller"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "listen",
			Value: ":60000",
		},
		cli.DurationFlag{
			Name:  "summary",
			Value: time.Second,
			Usage: "interval between per-motor summaries; 0 prints every frame",
		},
	}
	app.Action = func(c *cli.Context) error {
		addr, err := net.ResolveUDPAddr("udp", c.GlobalString("listen"))
		if err != nil {
			return err
		}
		conn, err := net.ListenUDP("udp", addr)
		if err != nil {
			return err
		}
		defer conn.Close()
		log.Printf("Listening for motor frames on %s", conn.LocalAddr())

		frames := make(chan frame)
		go readFrames(conn, frames)

		summary := c.GlobalDuration("summary")
		var tickC <-chan time.Time
		if summary > 0 {
			ticker := time.NewTicker(summary)
			defer ticker.Stop()
			tickC = ticker.C
		}

		latest := map[int]float64{}
		for {
			select {
			case f, ok := <-frames:
				if !ok {
					return nil
				}
				latest[f.motorID] = f.power
				if tickC == nil {
					fmt.Printf("%s motor=%d power=%+.3f\n", f.from, f.motorID, f.power)
				}
			case <-tickC:
				fmt.Println(formatSummary(latest))
			}
		}
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type frame struct {
	from    net.Addr
	motorID int
	power   float64
}

func readFrames(conn *net.UDPConn, frames chan<- frame) {
	defer close(frames)
	buf := make([]byte, 64)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			fmt.Println("Failed to read from socket:", err)
			return
		}
		id, power, err := motorlink.DecodeFrame(buf[:n])
		if err != nil {
			fmt.Printf("Bad frame from %s: %v\n", from, err)
			continue
		}
		frames <- frame{from: from, motorID: id, power: power}
	}
}

func formatSummary(latest map[int]float64) string {
	if len(latest) == 0 {
		return "no frames yet"
	}
	ids := maps.Keys(latest)
	slices.Sort(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("m%d=%+.3f", id, latest[id])
	}
	return strings.Join(parts, " ")
}
