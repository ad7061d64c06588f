package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/claude/ironlog/internal/config"
	"github.com/claude/ironlog/internal/connectivity"
	"github.com/claude/ironlog/internal/derive"
	"github.com/claude/ironlog/internal/gateway"
	"github.com/claude/ironlog/internal/mcp"
	"github.com/claude/ironlog/internal/models"
	"github.com/claude/ironlog/internal/queue"
	"github.com/claude/ironlog/internal/session"
	"github.com/google/uuid"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const usageText = `Usage: ironlog [-config FILE] <command> [args]

Commands:
  start         begin a workout (-name, -template)
  pause         pause the workout timer
  resume        resume a paused timer
  add-exercise  add an exercise to the workout (-name, -id)
  add-set       log a set (-exercise, -weight, -reps, -rest, -rpe, -duration, -distance)
  complete-set  mark the latest pending set done (-exercise, -set)
  finish        complete the workout and print the summary
  cancel        abandon the workout
  status        show the live session and queue state
  sync          probe connectivity and replay queued mutations (-watch, -interval)
  stats         show aggregate training statistics from the server
  onerm         estimate a one-rep max (-weight, -reps, -formula)
`

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to config file")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("ironlog", Version)
		return
	}
	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	app, err := newApp(*configPath, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer app.close()

	if err := app.run(context.Background(), args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ironlog.yaml"
	}
	return filepath.Join(home, ".ironlog", "config.yaml")
}

// app wires the client stack: gateway, durable queue, session store, and
// connectivity prober, all rooted in one persistent state directory.
type app struct {
	cfg      *config.Config
	stateDir string
	log      *slog.Logger
	gw       *gateway.Client
	queue    *queue.Manager
	store    *session.Store
	monitor  *connectivity.Monitor
}

func newApp(configPath string, log *slog.Logger) (*app, error) {
	cfg, err := config.LoadClient(configPath)
	if err != nil {
		return nil, err
	}

	stateDir := cfg.Client.StateDir
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		stateDir = filepath.Join(home, ".ironlog")
	}

	gw := gateway.NewClient(strings.TrimRight(cfg.Client.ServerURL, "/"), cfg.Auth.APIKey, log)
	q, err := queue.Open(stateDir, log)
	if err != nil {
		return nil, err
	}

	formula := derive.Epley
	if cfg.Client.Formula != "" {
		formula, err = derive.ParseFormula(cfg.Client.Formula)
		if err != nil {
			q.Close()
			return nil, err
		}
	}

	store := session.NewStore(gw, q, log, session.Options{
		UserID:         1,
		Formula:        formula,
		DefaultRestSec: cfg.Client.DefaultRestSec,
		AutoRestTimer:  cfg.Client.AutoRest(),
	})

	st, err := session.LoadState(stateDir)
	if err != nil {
		q.Close()
		return nil, err
	}
	if st != nil {
		if err := store.Resume(st); err != nil {
			q.Close()
			return nil, fmt.Errorf("resuming saved session: %w", err)
		}
	}

	return &app{
		cfg:      cfg,
		stateDir: stateDir,
		log:      log,
		gw:       gw,
		queue:    q,
		store:    store,
		monitor:  connectivity.NewMonitor(gw, 30*time.Second, log),
	}, nil
}

func (a *app) close() {
	a.queue.Close()
}

// save persists the live session (or clears the file when none remains) so
// the next invocation picks up where this one left off.
func (a *app) save() error {
	return session.SaveState(a.stateDir, a.store.Suspend())
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "start":
		return a.cmdStart(ctx, args)
	case "pause":
		return a.cmdPause()
	case "resume":
		return a.cmdResume()
	case "add-exercise":
		return a.cmdAddExercise(ctx, args)
	case "add-set":
		return a.cmdAddSet(ctx, args)
	case "complete-set":
		return a.cmdCompleteSet(ctx, args)
	case "finish":
		return a.cmdFinish(ctx)
	case "cancel":
		return a.cmdCancel(ctx)
	case "status":
		return a.cmdStatus()
	case "sync":
		return a.cmdSync(ctx, args)
	case "stats":
		return a.cmdStats(ctx)
	case "onerm":
		return a.cmdOneRM(args)
	default:
		fmt.Fprint(os.Stderr, usageText)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) cmdStart(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	name := fs.String("name", "", "workout name")
	template := fs.String("template", "", "template ID to start from")
	fs.Parse(args)

	var templateID *uuid.UUID
	if *template != "" {
		id, err := uuid.Parse(*template)
		if err != nil {
			return fmt.Errorf("invalid template ID: %w", err)
		}
		templateID = &id
	}

	snap, err := a.store.StartWorkout(ctx, *name, templateID)
	if err != nil {
		return err
	}
	if err := a.save(); err != nil {
		return err
	}
	fmt.Printf("Started %q (%s)\n", snap.Name, syncLabel(snap.Sync))
	for _, we := range snap.Exercises {
		fmt.Printf("  %d. %s\n", we.OrderIndex+1, we.ExerciseName)
	}
	return nil
}

func (a *app) cmdPause() error {
	snap, err := a.store.PauseWorkout()
	if err != nil {
		return err
	}
	if err := a.save(); err != nil {
		return err
	}
	fmt.Printf("Paused %q at %s\n", snap.Name, fmtDuration(a.store.Elapsed()))
	return nil
}

func (a *app) cmdResume() error {
	snap, err := a.store.ResumeWorkout()
	if err != nil {
		return err
	}
	if err := a.save(); err != nil {
		return err
	}
	fmt.Printf("Resumed %q at %s\n", snap.Name, fmtDuration(a.store.Elapsed()))
	return nil
}

func (a *app) cmdAddExercise(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add-exercise", flag.ExitOnError)
	name := fs.String("name", "", "exercise name")
	idFlag := fs.String("id", "", "exercise catalog ID (optional; resolved by name when omitted)")
	superset := fs.String("superset", "", "superset group ID to join")
	fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("-name is required")
	}

	var exerciseID uuid.UUID
	if *idFlag != "" {
		id, err := uuid.Parse(*idFlag)
		if err != nil {
			return fmt.Errorf("invalid exercise ID: %w", err)
		}
		exerciseID = id
	} else {
		exerciseID = a.resolveExercise(ctx, *name)
	}

	var supersetGroup *uuid.UUID
	if *superset != "" {
		id, err := uuid.Parse(*superset)
		if err != nil {
			return fmt.Errorf("invalid superset group ID: %w", err)
		}
		supersetGroup = &id
	}

	snap, err := a.store.AddExerciseToWorkout(ctx, exerciseID, *name, supersetGroup)
	if err != nil {
		return err
	}
	if err := a.save(); err != nil {
		return err
	}
	we := snap.Exercises[len(snap.Exercises)-1]
	fmt.Printf("Added %s as exercise %d\n", we.ExerciseName, we.OrderIndex+1)
	return nil
}

// resolveExercise looks the name up in the server catalog, falling back to a
// fresh ID offline. The session only needs a stable identifier for record
// tracking; an unmatched name becomes a custom exercise.
func (a *app) resolveExercise(ctx context.Context, name string) uuid.UUID {
	catalog, err := a.gw.ListExercises(ctx)
	if err != nil {
		a.log.Warn("exercise catalog unavailable, using a new ID", "error", err)
		return uuid.New()
	}
	for _, ex := range catalog {
		if strings.EqualFold(ex.Name, name) {
			return ex.ID
		}
	}
	return uuid.New()
}

func (a *app) cmdAddSet(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add-set", flag.ExitOnError)
	exercise := fs.Int("exercise", 0, "exercise position (1-based; default last)")
	weight := fs.Float64("weight", 0, "weight in kg")
	reps := fs.Int("reps", 0, "repetitions")
	rest := fs.Int("rest", 0, "rest seconds after this set")
	rpe := fs.Float64("rpe", 0, "rate of perceived exertion")
	duration := fs.Int("duration", 0, "duration in seconds (timed sets)")
	distance := fs.Float64("distance", 0, "distance in meters (cardio sets)")
	fs.Parse(args)

	we, err := a.exerciseAt(*exercise)
	if err != nil {
		return err
	}

	var params session.SetParams
	if *weight > 0 {
		params.WeightKg = weight
	}
	if *reps > 0 {
		params.Reps = reps
	}
	if *rest > 0 {
		params.RestSec = rest
	}
	if *rpe > 0 {
		params.RPE = rpe
	}
	if *duration > 0 {
		params.DurationSec = duration
	}
	if *distance > 0 {
		params.DistanceM = distance
	}

	set, err := a.store.AddSet(ctx, we.ID, params)
	if err != nil {
		return err
	}
	if err := a.save(); err != nil {
		return err
	}
	fmt.Printf("%s set %d: %s (%s)\n", we.ExerciseName, set.SetNumber, fmtSet(*set), syncLabel(set.Sync))
	return nil
}

func (a *app) cmdCompleteSet(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("complete-set", flag.ExitOnError)
	exercise := fs.Int("exercise", 0, "exercise position (1-based; default last with a pending set)")
	setNumber := fs.Int("set", 0, "set number (default last pending)")
	fs.Parse(args)

	setID, we, err := a.pendingSet(*exercise, *setNumber)
	if err != nil {
		return err
	}

	set, err := a.store.CompleteSet(ctx, setID)
	if err != nil {
		return err
	}
	if err := a.save(); err != nil {
		return err
	}
	fmt.Printf("Completed %s set %d: %s (%s)\n", we.ExerciseName, set.SetNumber, fmtSet(*set), syncLabel(set.Sync))
	if rem := a.store.RestRemaining(); rem > 0 {
		fmt.Printf("Rest: %s\n", fmtDuration(rem))
	}
	return nil
}

func (a *app) cmdFinish(ctx context.Context) error {
	summary, err := a.store.FinishWorkout(ctx)
	if err != nil {
		return err
	}
	if err := a.save(); err != nil {
		return err
	}

	s := summary.Session
	fmt.Printf("Finished %q (%s)\n", s.Name, syncLabel(s.Sync))
	fmt.Printf("  Duration: %s\n", fmtDuration(time.Duration(s.DurationSec)*time.Second))
	fmt.Printf("  Sets:     %d\n", s.TotalSets)
	fmt.Printf("  Volume:   %.1f kg\n", s.TotalVolume)
	for _, rec := range summary.NewRecords {
		fmt.Printf("  PR! %s: %.1f kg x %d (est. 1RM %.1f kg)\n",
			rec.ExerciseName, rec.WeightKg, rec.Reps, rec.OneRepMax)
	}
	fmt.Printf("  Streak:   %d day(s) (longest %d)\n", summary.Streaks.Current, summary.Streaks.Longest)
	return nil
}

func (a *app) cmdCancel(ctx context.Context) error {
	if err := a.store.CancelWorkout(ctx); err != nil {
		return err
	}
	if err := a.save(); err != nil {
		return err
	}
	fmt.Println("Workout cancelled")
	return nil
}

func (a *app) cmdStatus() error {
	snap := a.store.Current()
	if snap == nil {
		fmt.Println("No workout in progress")
	} else {
		fmt.Printf("%q — %s, elapsed %s (%s)\n",
			snap.Name, snap.Status, fmtDuration(a.store.Elapsed()), syncLabel(snap.Sync))
		for _, we := range snap.Exercises {
			fmt.Printf("  %d. %s\n", we.OrderIndex+1, we.ExerciseName)
			for _, set := range we.Sets {
				mark := " "
				if set.Completed {
					mark = "x"
				}
				fmt.Printf("     [%s] set %d: %s (%s)\n", mark, set.SetNumber, fmtSet(set), syncLabel(set.Sync))
			}
		}
		if rem := a.store.RestRemaining(); rem > 0 {
			fmt.Printf("Rest: %s\n", fmtDuration(rem))
		}
	}

	n, err := a.queue.Len()
	if err != nil {
		return err
	}
	if n > 0 {
		fmt.Printf("Queue: %d mutation(s) pending sync\n", n)
	}
	if last, err := a.queue.GetPref("last_sync"); err == nil && last != "" {
		fmt.Printf("Last sync: %s\n", last)
	}
	return nil
}

func (a *app) cmdSync(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	watch := fs.Bool("watch", false, "keep running and replay the queue on every reconnect")
	interval := fs.Duration("interval", 30*time.Second, "probe interval in watch mode")
	fs.Parse(args)

	if *watch {
		return a.watchSync(*interval)
	}

	if !a.monitor.Probe(ctx) {
		n, _ := a.queue.Len()
		return fmt.Errorf("server unreachable; %d mutation(s) still queued", n)
	}

	stats, err := a.store.Flush(ctx)
	if err != nil {
		return err
	}
	if err := a.save(); err != nil {
		return err
	}
	if err := a.queue.SetPref("last_sync", time.Now().Format(time.RFC3339)); err != nil {
		a.log.Warn("failed to record sync time", "error", err)
	}
	fmt.Printf("Synced: %d replayed, %d requeued\n", stats.Replayed, stats.Requeued)
	return nil
}

// watchSync runs the connectivity monitor until interrupted, replaying the
// queue on every offline-to-online transition.
func (a *app) watchSync(interval time.Duration) error {
	monitor := connectivity.NewMonitor(a.gw, interval, a.log)
	monitor.Subscribe(func(online bool) {
		if online {
			fmt.Println("Online; replaying queue")
		} else {
			fmt.Println("Offline; queuing mutations")
		}
		a.store.HandleConnectivity(context.Background(), online)
		if online {
			if err := a.save(); err != nil {
				a.log.Warn("failed to persist session state", "error", err)
			}
			if err := a.queue.SetPref("last_sync", time.Now().Format(time.RFC3339)); err != nil {
				a.log.Warn("failed to record sync time", "error", err)
			}
		}
	})
	monitor.Start()
	defer monitor.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	return nil
}

func (a *app) cmdStats(ctx context.Context) error {
	client := mcp.NewHTTPClient(strings.TrimRight(a.cfg.Client.ServerURL, "/"), a.cfg.Auth.APIKey)
	stats, err := client.GetTrainingStats(ctx, 0)
	if err != nil {
		return err
	}

	fmt.Printf("Workouts: %d\n", stats.TotalWorkouts)
	fmt.Printf("Sets:     %d\n", stats.TotalSets)
	fmt.Printf("Volume:   %.1f kg\n", stats.TotalVolume)
	fmt.Printf("Time:     %s\n", fmtDuration(time.Duration(stats.TotalDurationSec)*time.Second))
	if stats.EarliestWorkout != nil && stats.LatestWorkout != nil {
		fmt.Printf("Range:    %s — %s\n",
			stats.EarliestWorkout.Format("2006-01-02"), stats.LatestWorkout.Format("2006-01-02"))
	}
	if len(stats.VolumeByExercise) > 0 {
		fmt.Println("\nBy exercise:")
		for _, row := range stats.VolumeByExercise {
			fmt.Printf("  %-24s %4d sets  %10.1f kg  (max %.1f kg)\n",
				row.ExerciseName, row.SetCount, row.TotalVolume, row.MaxWeightKg)
		}
	}
	return nil
}

func (a *app) cmdOneRM(args []string) error {
	fs := flag.NewFlagSet("onerm", flag.ExitOnError)
	weight := fs.Float64("weight", 0, "weight in kg")
	reps := fs.Int("reps", 0, "repetitions")
	formulaName := fs.String("formula", "", "epley, brzycki, or lombardi (default from config)")
	fs.Parse(args)

	formula := derive.Epley
	name := *formulaName
	if name == "" {
		name = a.cfg.Client.Formula
	}
	if name != "" {
		var err error
		formula, err = derive.ParseFormula(name)
		if err != nil {
			return err
		}
	}

	max, err := derive.OneRepMax(formula, *weight, *reps)
	if err != nil {
		return err
	}
	fmt.Printf("Estimated 1RM (%s): %.1f kg\n", formula, max)
	return nil
}

// exerciseAt returns the exercise at the 1-based position, or the last one
// when pos is zero.
func (a *app) exerciseAt(pos int) (*models.WorkoutExercise, error) {
	snap := a.store.Current()
	if snap == nil {
		return nil, session.ErrNoActiveWorkout
	}
	if len(snap.Exercises) == 0 {
		return nil, fmt.Errorf("no exercises in the current workout; run add-exercise first")
	}
	if pos == 0 {
		return &snap.Exercises[len(snap.Exercises)-1], nil
	}
	if pos < 1 || pos > len(snap.Exercises) {
		return nil, fmt.Errorf("exercise %d out of range (1-%d)", pos, len(snap.Exercises))
	}
	return &snap.Exercises[pos-1], nil
}

// pendingSet resolves which set complete-set should act on: an explicit
// exercise/set pair, or the most recently added incomplete set.
func (a *app) pendingSet(exercisePos, setNumber int) (uuid.UUID, *models.WorkoutExercise, error) {
	snap := a.store.Current()
	if snap == nil {
		return uuid.Nil, nil, session.ErrNoActiveWorkout
	}

	if exercisePos > 0 || setNumber > 0 {
		we, err := a.exerciseAt(exercisePos)
		if err != nil {
			return uuid.Nil, nil, err
		}
		for _, set := range we.Sets {
			if setNumber == 0 && !set.Completed {
				return set.ID, we, nil
			}
			if setNumber > 0 && set.SetNumber == setNumber {
				return set.ID, we, nil
			}
		}
		return uuid.Nil, nil, fmt.Errorf("no matching set on %s", we.ExerciseName)
	}

	for i := len(snap.Exercises) - 1; i >= 0; i-- {
		we := &snap.Exercises[i]
		for j := len(we.Sets) - 1; j >= 0; j-- {
			if !we.Sets[j].Completed {
				return we.Sets[j].ID, we, nil
			}
		}
	}
	return uuid.Nil, nil, fmt.Errorf("no pending sets to complete")
}

func fmtSet(set models.SetEntry) string {
	var parts []string
	if set.WeightKg != nil && set.Reps != nil {
		parts = append(parts, fmt.Sprintf("%.1f kg x %d", *set.WeightKg, *set.Reps))
	} else if set.Reps != nil {
		parts = append(parts, fmt.Sprintf("%d reps", *set.Reps))
	}
	if set.DistanceM != nil {
		parts = append(parts, fmt.Sprintf("%.0f m", *set.DistanceM))
	}
	if set.DurationSec != nil {
		parts = append(parts, fmtDuration(time.Duration(*set.DurationSec)*time.Second))
	}
	if set.RPE != nil {
		parts = append(parts, fmt.Sprintf("RPE %.1f", *set.RPE))
	}
	if len(parts) == 0 {
		return "empty set"
	}
	return strings.Join(parts, ", ")
}

func fmtDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func syncLabel(state models.SyncState) string {
	switch state {
	case models.SyncConfirmed:
		return "synced"
	case models.SyncPending:
		return "queued"
	case models.SyncFailed:
		return "sync failed"
	}
	return string(state)
}
