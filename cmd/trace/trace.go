package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/tablelock-dev/tablelock/trace"
)

var file = flag.String("file", "", "Trace file to dump")

func main() {
	flag.Parse()
	if *file == "" {
		log.Fatal("--file is required")
	}
	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("couldn't open trace: %s", err)
	}
	defer f.Close()

	h, events, err := trace.Read(f)
	if err != nil {
		log.Fatalf("couldn't read trace: %s", err)
	}
	fmt.Printf("run %s: %d agents, %d resources, strategy %s, started %s\n",
		h.RunID, h.Agents, h.Resources, h.Strategy, h.StartedAt.Format(time.RFC3339))
	for _, e := range events {
		who := fmt.Sprintf("agent %d", e.Agent)
		if e.Agent == trace.SystemAgent {
			who = "system"
		}
		fmt.Printf("%s  %-8s %-9s %s\n", e.Timestamp.Format("15:04:05.000"), e.Kind, who, e.Detail)
	}
}
