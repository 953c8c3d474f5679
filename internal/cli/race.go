package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/lazyslot/internal/demo"
	"github.com/calvinalkan/lazyslot/pkg/slot"
)

// RaceCmd returns the race command.
func RaceCmd(a *app) *Command {
	fs := flag.NewFlagSet("race", flag.ContinueOnError)
	fs.IntP("workers", "n", 0, "Goroutines calling Get at once (default from config)")
	fs.Duration("delay", 0, "Artificial construction delay (default from config)")
	fs.String("out", "", "Write a JSON report to `file`")

	return &Command{
		Flags: fs,
		Usage: "race [flags]",
		Short: "Race goroutines on first access",
		Long: "Start N goroutines that all call Get on an empty slot at the same moment.\n" +
			"Reports how many constructions ran and how many distinct instances were seen.",
		Examples: []string{
			"race -n 500 --delay 100ms",
			"--policy=fail-fast --fail-first=1 race",
			"race --out report.json",
		},
		Slots: true,
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			return execRace(ctx, io, a, fs)
		},
	}
}

var errUniquenessViolated = errors.New("more than one instance observed")

// raceReport is the JSON written by --out.
type raceReport struct {
	Workers           int    `json:"workers"`
	Constructions     int64  `json:"constructions"`
	DistinctInstances int    `json:"distinct_instances"`
	Failures          int    `json:"failures"`
	InstanceID        string `json:"instance_id,omitempty"`
	Policy            string `json:"policy"`
	ElapsedNS         int64  `json:"elapsed_ns"`
}

func execRace(ctx context.Context, io *IO, a *app, fs *flag.FlagSet) error {
	workers := a.cfg.Workers
	if fs.Changed("workers") {
		workers, _ = fs.GetInt("workers")
		if workers <= 0 {
			return errors.New("--workers must be greater than zero")
		}
	}

	delay := a.cfg.Delay
	if fs.Changed("delay") {
		delay, _ = fs.GetDuration("delay")
		if delay < 0 {
			return errors.New("--delay cannot be negative")
		}
	}

	outPath, _ := fs.GetString("out")
	if outPath != "" && !filepath.IsAbs(outPath) {
		outPath = filepath.Join(a.cfg.EffectiveCwd, outPath)
	}

	if ctx.Err() != nil {
		return errCanceled
	}

	factory := demo.NewFactory(a.cfg.DSN, delay, a.cfg.FailFirst)
	s := slot.New(factory.Constructor(),
		slot.WithName("database"),
		slot.WithPolicy(a.cfg.PolicyValue),
		slot.WithHook(a.hook),
	)

	start := time.Now()
	instances, failures := race(s, workers)
	elapsed := time.Since(start)

	report := raceReport{
		Workers:           workers,
		Constructions:     factory.Calls(),
		DistinctInstances: len(instances),
		Failures:          failures,
		Policy:            s.Policy().String(),
		ElapsedNS:         elapsed.Nanoseconds(),
	}

	for db := range instances {
		report.InstanceID = db.ID.String()
	}

	io.KV("workers", report.Workers)
	io.KV("policy", report.Policy)
	io.KV("constructions", report.Constructions)
	io.KV("distinct_instances", report.DistinctInstances)
	io.KV("failures", report.Failures)

	if report.InstanceID != "" {
		io.KV("instance", report.InstanceID)
	}

	io.KV("elapsed", elapsed.Round(time.Microsecond))

	if outPath != "" {
		if err := writeReport(outPath, report); err != nil {
			return err
		}
	}

	if report.DistinctInstances > 1 {
		return fmt.Errorf("%w: %d", errUniquenessViolated, report.DistinctInstances)
	}

	if report.DistinctInstances == 0 {
		io.Warn("no instance was constructed", "lower fail_first or use --policy=retry")
	}

	return nil
}

// race releases workers goroutines at once and collects the distinct
// instances they observed and how many of them got an error.
func race(s *slot.Slot[*demo.Database], workers int) (map[*demo.Database]struct{}, int) {
	gate := make(chan struct{})
	results := make([]*demo.Database, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()
			<-gate
			results[i], errs[i] = s.Get()
		}()
	}

	close(gate)
	wg.Wait()

	instances := make(map[*demo.Database]struct{})
	failures := 0

	for i := range workers {
		if errs[i] != nil {
			failures++
			continue
		}

		instances[results[i]] = struct{}{}
	}

	return instances, failures
}

func writeReport(path string, report raceReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	data = append(data, '\n')

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	return nil
}
