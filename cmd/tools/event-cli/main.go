package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/annel0/fluid-sim/internal/eventbus"
	nats "github.com/nats-io/nats.go"
)

const (
	defaultNATSAddr = "nats://127.0.0.1:4222"
	defaultAPIAddr  = "http://localhost:8088"
)

func main() {
	var (
		natsAddr   = flag.String("nats", defaultNATSAddr, "NATS server address")
		apiAddr    = flag.String("api", defaultAPIAddr, "REST API base URL")
		command    = flag.String("cmd", "tail", "Command: tail, stats, types")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated, e.g. fluid.placed,sim.frame)")
		source     = flag.String("source", "", "Source filter")
	)
	flag.Parse()

	switch *command {
	case "tail":
		if err := tailEvents(*natsAddr, parseStringList(*eventTypes), *source); err != nil {
			log.Fatalf("❌ Tail failed: %v", err)
		}

	case "stats":
		if err := showStats(*apiAddr); err != nil {
			log.Fatalf("❌ Stats failed: %v", err)
		}

	case "types":
		if err := showTypes(*apiAddr); err != nil {
			log.Fatalf("❌ Types failed: %v", err)
		}

	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: tail, stats, types")
		os.Exit(1)
	}
}

// tailEvents подписывается на стрим событий и печатает их до Ctrl+C
func tailEvents(natsAddr string, types []string, source string) error {
	nc, err := nats.Connect(natsAddr, nats.Name("fluid-event-cli"))
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Drain()

	js, err := nc.JetStream()
	if err != nil {
		return fmt.Errorf("jetstream: %w", err)
	}

	subjects := []string{"events.>"}
	if len(types) > 0 {
		subjects = subjects[:0]
		for _, t := range types {
			subjects = append(subjects, "events."+t)
		}
	}

	var count uint64
	handler := func(msg *nats.Msg) {
		var ev eventbus.Envelope
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			fmt.Printf("⚠️  malformed event on %s: %v\n", msg.Subject, err)
			return
		}
		if source != "" && ev.Source != source {
			return
		}
		atomic.AddUint64(&count, 1)
		printEvent(&ev)
	}

	// Эфемерные подписки: durable consumer на CLI оставлять нельзя
	for _, subj := range subjects {
		if _, err := js.Subscribe(subj, handler, nats.DeliverNew()); err != nil {
			return fmt.Errorf("subscribe %s: %w", subj, err)
		}
	}

	fmt.Printf("🎬 Tailing %s (Ctrl+C to stop)\n", strings.Join(subjects, ", "))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Printf("\n📊 Total events: %d\n", atomic.LoadUint64(&count))
	return nil
}

func printEvent(ev *eventbus.Envelope) {
	payload := strings.TrimSpace(string(ev.Payload))
	fmt.Printf("%s  %-16s src=%s prio=%d  %s\n",
		ev.Timestamp.Local().Format("15:04:05.000"),
		ev.EventType, ev.Source, ev.Priority, payload)
}

// simStats повторяет форму ответа GET /api/stats
type simStats struct {
	Success bool `json:"success"`
	Data    struct {
		Simulation struct {
			Frame        uint64 `json:"frame"`
			Pending      int    `json:"pending_ticks"`
			LoadedChunks int    `json:"loaded_chunks"`
			FluidCells   int    `json:"fluid_cells"`
			Engine       struct {
				Ticks     uint64
				Moves     uint64
				Settled   uint64
				Drained   uint64
				Contacts  uint64
				Destroyed uint64
			} `json:"engine"`
		} `json:"simulation"`
		Server map[string]interface{} `json:"server"`
	} `json:"data"`
}

// showStats запрашивает статистику симуляции через REST API
func showStats(apiAddr string) error {
	fmt.Println("📊 Simulation statistics")

	var resp simStats
	if err := getJSON(apiAddr+"/api/stats", &resp); err != nil {
		return err
	}

	s := resp.Data.Simulation
	fmt.Printf("Frame: %d\n", s.Frame)
	fmt.Printf("Pending ticks: %d\n", s.Pending)
	fmt.Printf("Loaded chunks: %d\n", s.LoadedChunks)
	fmt.Printf("Fluid cells: %d\n", s.FluidCells)
	fmt.Println("\nEngine counters:")
	fmt.Printf("  ticks:     %d\n", s.Engine.Ticks)
	fmt.Printf("  moves:     %d\n", s.Engine.Moves)
	fmt.Printf("  settled:   %d\n", s.Engine.Settled)
	fmt.Printf("  drained:   %d\n", s.Engine.Drained)
	fmt.Printf("  contacts:  %d\n", s.Engine.Contacts)
	fmt.Printf("  destroyed: %d\n", s.Engine.Destroyed)

	if uptime, ok := resp.Data.Server["uptime"]; ok {
		fmt.Printf("\nServer uptime: %v\n", uptime)
	}
	return nil
}

// fluidTypes повторяет форму ответа GET /api/fluids/types
type fluidTypes struct {
	Data struct {
		Fluids []struct {
			ID        int     `json:"id"`
			Name      string  `json:"name"`
			Density   float64 `json:"density"`
			Viscosity int     `json:"viscosity"`
			Flow      string  `json:"flow"`
		} `json:"fluids"`
		Total int `json:"total"`
	} `json:"data"`
}

// showTypes выводит зарегистрированные типы жидкостей
func showTypes(apiAddr string) error {
	fmt.Println("📋 Registered fluid types")

	var resp fluidTypes
	if err := getJSON(apiAddr+"/api/fluids/types", &resp); err != nil {
		return err
	}

	fmt.Printf("%-4s %-10s %-10s %-10s %s\n", "ID", "NAME", "DENSITY", "VISCOSITY", "FLOW")
	for _, f := range resp.Data.Fluids {
		fmt.Printf("%-4d %-10s %-10.1f %-10d %s\n", f.ID, f.Name, f.Density, f.Viscosity, f.Flow)
	}
	fmt.Printf("\nTotal: %d\n", resp.Data.Total)
	return nil
}

func getJSON(url string, out interface{}) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s from %s", resp.Status, url)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
