package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tablelock-dev/tablelock/scenario"
	"github.com/tablelock-dev/tablelock/sim"
	"github.com/tablelock-dev/tablelock/trace"
)

var (
	watchInterval time.Duration
	quietFlag     bool
)

var runCmd = &cobra.Command{
	Use:   "run SPECFILE",
	Short: "Run a simulation spec",
	Args:  cobra.MinimumNArgs(1),
	Run:   runCommand,
}

func init() {
	runCmd.Flags().DurationVar(&watchInterval, "watch-interval", 250*time.Millisecond, "How often to poll events and check for deadlock")
	runCmd.Flags().BoolVar(&quietFlag, "quiet", false, "Suppress per-event output")
}

func runCommand(cmd *cobra.Command, args []string) {
	spec, err := scenario.LoadSpecFromFile(args[0])
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't load specfile")
	}

	var plan *scenario.Plan
	if spec.Scenario.File != "" {
		plan, err = scenario.LoadPlan(spec.Scenario.File)
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't load scenario plan")
		}
	}

	agents, forks := spec.Sim.Agents, spec.Sim.Resources
	strategy, err := spec.Strategy()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid strategy in specfile")
	}
	if plan != nil {
		agents, forks = plan.Agents, plan.Resources
		strategy = plan.Strategy
	}

	s, err := sim.New(agents, forks)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't build simulation")
	}
	if s.Unit, err = spec.TimeUnit(); err != nil {
		log.Fatal().Err(err).Msg("Invalid time unit in specfile")
	}
	duration, err := spec.RunDuration()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid duration in specfile")
	}
	if plan != nil {
		duration = time.Duration(plan.TotalUnits()) * s.Unit
	}

	var tw *trace.Writer
	if spec.Trace.File != "" {
		f, err := os.Create(spec.Trace.File)
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't create trace file")
		}
		defer f.Close()
		tw, err = trace.NewWriter(f, trace.Header{
			RunID:     s.RunID,
			Agents:    agents,
			Resources: forks,
			Strategy:  strategy.String(),
			StartedAt: time.Now(),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't write trace header")
		}
	}

	s.SetStrategy(strategy)
	fmt.Fprintln(os.Stderr, color.Cyan.Sprintf("Running %d agents over %d forks (strategy %s) for %s...",
		agents, forks, strategy, duration))
	s.Start()

	done := make(chan struct{})
	go func() {
		if plan != nil {
			plan.Apply(s)
		} else {
			time.Sleep(duration)
		}
		close(done)
	}()

	deadlocked := watch(s, tw, done)

	s.Stop()
	drain(s, tw)

	printSummary(s, deadlocked)
	if deadlocked {
		os.Exit(1)
	}
}

// watch polls the simulation until done closes: it drains events into the
// trace, re-checks for deadlock, and reports allocation-graph changes.
func watch(s *sim.Simulation, tw *trace.Writer, done <-chan struct{}) bool {
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	deadlocked := false
	var lastGraph uint64
	for {
		select {
		case <-done:
			return deadlocked
		case <-ticker.C:
			emit(s.PollEvents(), tw)
			if s.DetectDeadlock() {
				if !deadlocked {
					fmt.Fprintln(os.Stderr, color.Red.Sprint("⚠ Deadlock detected"))
				}
				deadlocked = true
			}
			if fp, err := s.Fingerprint(); err == nil && fp != lastGraph {
				lastGraph = fp
				log.Debug().Uint64("graph", fp).Msg("allocation graph changed")
			}
		}
	}
}

// drain flushes whatever the final poll still holds, summaries included.
func drain(s *sim.Simulation, tw *trace.Writer) {
	emit(s.PollEvents(), tw)
	if tw != nil {
		log.Info().Int("events", tw.Count()).Msg("trace written")
	}
}

func emit(events []trace.Event, tw *trace.Writer) {
	if tw != nil {
		if err := tw.Write(events); err != nil {
			log.Error().Err(err).Msg("Failed to write trace events")
		}
	}
	if quietFlag {
		return
	}
	for _, e := range events {
		log.Info().Int("agent", e.Agent).Str("kind", e.Kind).Msg(e.Detail)
	}
}

func printSummary(s *sim.Simulation, deadlocked bool) {
	total := 0
	fmt.Fprintln(os.Stderr, "\nPer-agent results:")
	for _, st := range s.Stats() {
		total += st.EatCount
		fmt.Fprintf(os.Stderr, "  agent %2d: meals=%-4d max_wait=%d\n", st.ID, st.EatCount, st.MaxWaitCount)
	}
	fmt.Fprintf(os.Stderr, "Total meals: %d\n", total)
	if deadlocked {
		fmt.Fprintln(os.Stderr, color.Red.Sprint("✗ Run finished with a detected deadlock"))
	} else {
		fmt.Fprintln(os.Stderr, color.Green.Sprint("✓ Run finished with no deadlock detected"))
	}
}
