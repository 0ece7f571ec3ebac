package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/protocol"
)

// bot connects as an agent and wanders: every few hundred ticks it asks
// for a new random destination inside the world bounds and logs arrivals
// and stalls from its observation stream.

func main() {
	var (
		url  = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name = flag.String("name", "bot", "agent name")
		role = flag.String("role", "wanderer", "agent role")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		AgentName:       *name,
		Role:            *role,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	var bounds protocol.BoundsWire
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			bounds = w.WorldParams.Bounds
			logger.Printf("WELCOME agent_id=%s tick_rate=%d seed=%d bounds=%v..%v",
				w.AgentID, w.WorldParams.TickRateHz, w.WorldParams.Seed, bounds.Min, bounds.Max)

		case protocol.TypeObs:
			var obs protocol.ObsMsg
			if err := json.Unmarshal(msg, &obs); err != nil {
				continue
			}
			handleObs(conn, logger, rng, bounds, &obs)
		}
	}
}

func handleObs(conn *websocket.Conn, logger *log.Logger, rng *rand.Rand, bounds protocol.BoundsWire, obs *protocol.ObsMsg) {
	for _, ev := range obs.Events {
		kind, _ := ev["kind"].(string)
		switch kind {
		case "ARRIVE", "STALL", "RECOVERY", "ABANDON":
			logger.Printf("tick=%d %s pos=%v", obs.Tick, kind, obs.Self.Pos)
		}
	}

	// Pick a new destination when idle (and on a sparse tick so a burst
	// of OBS frames after reconnect does not spam the server).
	if obs.Self.Activity != "IDLE" && obs.Self.Activity != "ARRIVED" {
		return
	}
	if obs.Tick%200 != 10 {
		return
	}
	if bounds.Min == bounds.Max {
		return
	}

	tx := bounds.Min[0] + rng.Float32()*(bounds.Max[0]-bounds.Min[0])
	tz := bounds.Min[2] + rng.Float32()*(bounds.Max[2]-bounds.Min[2])
	act := protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		Tick:            obs.Tick,
		AgentID:         obs.AgentID,
		Tasks: []protocol.TaskReq{
			{ID: fmt.Sprintf("K_move_%d", obs.Tick), Type: protocol.TaskMoveTo, Target: [3]float32{tx, obs.Self.Pos[1], tz}},
		},
	}
	if err := conn.WriteJSON(act); err != nil {
		logger.Printf("send ACT: %v", err)
		return
	}
	logger.Printf("tick=%d MOVE_TO target=(%.1f,%.1f,%.1f)", obs.Tick, tx, obs.Self.Pos[1], tz)
}
