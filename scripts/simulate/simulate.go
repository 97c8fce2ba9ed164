// Drives the /ws endpoint with synthetic vehicles converging on one spot,
// which reliably trips the predicted-collision and intersection detectors.
//
//	go run ./scripts/simulate -vehicles 4 -hz 1
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type telemetry struct {
	UserID    string  `json:"userId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Speed     float64 `json:"speed"`
	Heading   float64 `json:"heading"`
	Timestamp string  `json:"timestamp"`
}

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "websocket endpoint")
	vehicles := flag.Int("vehicles", 4, "number of simulated vehicles")
	hz := flag.Float64("hz", 1, "telemetry messages per second per vehicle")
	duration := flag.Duration("duration", 30*time.Second, "how long to run")
	flag.Parse()

	fmt.Printf("Simulating %d vehicles against %s for %s\n", *vehicles, *addr, *duration)

	var wg sync.WaitGroup
	for i := 0; i < *vehicles; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			runVehicle(*addr, n, *vehicles, *hz, *duration)
		}(i)
	}
	wg.Wait()
	fmt.Println("Done")
}

// runVehicle starts ~60m from a shared convergence point and drives straight
// at it at 10 m/s.
func runVehicle(addr string, n, total int, hz float64, duration time.Duration) {
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		log.Printf("vehicle-%d: dial failed: %v", n, err)
		return
	}
	defer conn.Close()

	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var resp map[string]interface{}
			if err := json.Unmarshal(msg, &resp); err != nil {
				continue
			}
			if resp["status"] == "threat" {
				log.Printf("vehicle-%d: THREAT %v", n, resp["data"])
			} else if threats, ok := resp["threats"].([]interface{}); ok && len(threats) > 0 {
				log.Printf("vehicle-%d: ack with %d threat(s)", n, len(threats))
			}
		}
	}()

	const (
		centerLat = 40.7128
		centerLon = -74.0060
		speedMS   = 10.0
		startDist = 60.0
	)

	// Evenly spaced around the center, all pointed inward.
	angle := 360.0 * float64(n) / float64(total)
	bearingIn := math.Mod(angle+180, 360)

	lat := centerLat + startDist*math.Cos(angle*math.Pi/180)/111320.0
	lon := centerLon + startDist*math.Sin(angle*math.Pi/180)/(111320.0*math.Cos(centerLat*math.Pi/180))

	interval := time.Duration(float64(time.Second) / hz)
	deadline := time.Now().Add(duration)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		if time.Now().After(deadline) {
			return
		}

		msg := telemetry{
			UserID:    fmt.Sprintf("vehicle-%d", n),
			Latitude:  lat,
			Longitude: lon,
			Speed:     speedMS,
			Heading:   bearingIn,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("vehicle-%d: write failed: %v", n, err)
			return
		}

		// Advance along the inward bearing.
		step := speedMS * interval.Seconds()
		lat += step * math.Cos(bearingIn*math.Pi/180) / 111320.0
		lon += step * math.Sin(bearingIn*math.Pi/180) / (111320.0 * math.Cos(lat*math.Pi/180))
	}
}
