// trackersim plays one motion-tracker server, so the console can be
// exercised without hardware. It reports a capture volume on connect
// and, while streaming is enabled, walks its performer in a circle.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	logging "github.com/ipfs/go-log/v2"

	"github.com/ellehcimzhang/frontseat.github.io/protocol"
)

var log = logging.Logger("trackersim")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

var bounds = protocol.TrackerBounds{MinX: 0, MaxX: 10, MinZ: 0, MaxZ: 10}

func main() {
	port := flag.Int("port", 9003, "port to serve the tracker protocol on")
	id := flag.String("id", "sim", "performer id reported in sample channels")
	hz := flag.Int("hz", 30, "sample rate while streaming")
	flag.Parse()

	logging.SetAllLoggers(logging.LevelInfo)

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		serve(w, r, *id, *hz)
	})
	log.Infof("tracker sim %q on :%d", *id, *port)
	log.Fatalf("listen: %v", http.ListenAndServe(fmt.Sprintf(":%d", *port), nil))
}

func serve(w http.ResponseWriter, r *http.Request, id string, hz int) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnw("upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	log.Infow("console connected", "remote", conn.RemoteAddr().String())

	var mu sync.Mutex // guards writes and streaming flag
	streaming := false

	// Report the capture volume before any samples.
	state, _ := json.Marshal(struct {
		Bounds protocol.TrackerBounds `json:"bounds"`
	}{bounds})
	if err := conn.WriteMessage(websocket.TextMessage, state); err != nil {
		return
	}

	quit := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second / time.Duration(hz))
		defer ticker.Stop()
		start := time.Now()
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
			}
			mu.Lock()
			if !streaming {
				mu.Unlock()
				continue
			}
			t := time.Since(start).Seconds()
			frame, _ := json.Marshal(protocol.SampleFrame{
				Time: t,
				Channels: []protocol.Channel{{
					ID: id,
					Pos: protocol.Vec3{
						X: 5 + 4*math.Cos(t/2),
						Z: 5 + 4*math.Sin(t/2),
					},
					Rot: protocol.Vec3{Y: math.Mod(t*30, 360)},
				}},
			})
			err := conn.WriteMessage(websocket.TextMessage, frame)
			mu.Unlock()
			if err != nil {
				return
			}
		}
	}()

	defer close(quit)
	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var ctl protocol.BroadcastControl
		if err := json.Unmarshal(b, &ctl); err != nil || ctl.Cmd != protocol.CmdBroadcast {
			log.Warnw("unexpected control message", "raw", string(b))
			continue
		}
		mu.Lock()
		streaming = ctl.Enabled
		mu.Unlock()
		log.Infow("streaming toggled", "enabled", ctl.Enabled)
	}
}
