package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ChristianF88/gcodex/analysis"
	"github.com/ChristianF88/gcodex/config"
	"github.com/ChristianF88/gcodex/gcode"
	"github.com/ChristianF88/gcodex/ingestor"
	"github.com/ChristianF88/gcodex/output"
	"github.com/ChristianF88/gcodex/parser"
	"github.com/ChristianF88/gcodex/tui"
	"github.com/ChristianF88/gcodex/window"
)

// ============================================================================
// CONFIGURATION STRUCTS
// ============================================================================

// OutputConfig contains output formatting options
type OutputConfig struct {
	Compact bool
	Plain   bool
	TUI     bool
}

// LiveParams contains everything the live loop needs
type LiveParams struct {
	Port          string
	ReadTimeout   time.Duration
	WindowMaxTime time.Duration
	WindowMaxSize int
	SweepInterval int
}

// ============================================================================
// MAIN ENTRY POINTS - These are the only functions that should be called externally
// ============================================================================

// Check validates the given files and reports per-file outcomes. Returns an
// error when any file fails so the command can exit non-zero.
func Check(files []string, opts parser.Options, outputConfig OutputConfig) error {
	result, ok := analysis.CheckFiles(files, opts)
	outputResult(result, outputConfig)
	if !ok {
		return fmt.Errorf("%d file(s) checked, at least one failed", len(files))
	}
	return nil
}

// CheckFromConfig runs check from a config file.
func CheckFromConfig(cfg *config.Config, outputConfig OutputConfig) error {
	opts, err := cfg.ToOptions()
	if err != nil {
		return err
	}
	return Check(cfg.Check.Files, opts, outputConfig)
}

// Stats analyzes one or more files and emits the statistics report. With a
// single file the TUI inspector is available; multiple files fan out to
// parallel workers.
func Stats(files []string, plotPath string, opts parser.Options, outputConfig OutputConfig) error {
	if outputConfig.TUI {
		if len(files) != 1 {
			return fmt.Errorf("tui mode inspects exactly one file")
		}
		return executeTUI(files[0], opts)
	}

	var result *output.JSONOutput
	var hist *output.LetterHistogram

	if len(files) == 1 {
		result, hist, _ = analysis.Static(files[0], opts)
	} else {
		result, hist = analysis.ParallelStatic(files, opts)
	}

	if plotPath != "" {
		plotStart := time.Now()
		if err := output.PlotHeatmap(hist, plotPath); err != nil {
			result.AddError("plot", err.Error(), 1)
		} else {
			result.AddWarning("info", fmt.Sprintf("Heatmap generated in %v at %s", time.Since(plotStart), plotPath), 0)
		}
	}

	outputResult(result, outputConfig)
	return nil
}

// StatsFromConfig runs stats from a config file.
func StatsFromConfig(cfg *config.Config, outputConfig OutputConfig) error {
	opts, err := cfg.ToOptions()
	if err != nil {
		return err
	}
	plotPath := ""
	if cfg.Stats != nil {
		plotPath = cfg.Stats.PlotPath
	}
	return Stats([]string{cfg.Stats.File}, plotPath, opts, outputConfig)
}

// Live runs the live intake loop until the ingestor closes or a signal
// arrives.
func Live(params LiveParams, opts parser.Options) error {
	return executeLiveAnalysis(params, opts)
}

// LiveFromConfig runs live mode from a config file.
func LiveFromConfig(cfg *config.Config) error {
	opts, err := cfg.ToOptions()
	if err != nil {
		return err
	}

	windowMaxTime, err := cfg.LiveWindowMaxTime()
	if err != nil {
		return err
	}
	readTimeout, err := cfg.LiveReadTimeout()
	if err != nil {
		return err
	}

	return executeLiveAnalysis(LiveParams{
		Port:          cfg.Live.Port,
		ReadTimeout:   readTimeout,
		WindowMaxTime: windowMaxTime,
		WindowMaxSize: cfg.LiveWindowMaxSize(),
		SweepInterval: cfg.LiveSweepInterval(),
	}, opts)
}

// ============================================================================
// CORE EXECUTION LOGIC
// ============================================================================

// executeTUI parses the whole file up front and hands the owned result to
// the inspector.
func executeTUI(file string, opts parser.Options) error {
	result, err := parser.ParseFile(file, opts)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", file, err)
	}
	report, _, _ := analysis.Static(file, opts)
	app := tui.NewApp(file, result, report)
	return app.Run()
}

// executeLiveAnalysis runs live mode - tokenizes every received line and
// keeps a sliding window of accepted blocks.
func executeLiveAnalysis(params LiveParams, opts parser.Options) error {
	// Every received line stands alone; cross-line N ordering is meaningless
	// when senders reconnect and replay.
	opts.ValidateLineNumbers = false

	win := window.New(params.WindowMaxTime, params.WindowMaxSize)

	ing, err := ingestor.NewTCPIngestor(params.Port, params.ReadTimeout)
	if err != nil {
		return fmt.Errorf("error creating ingestor: %w", err)
	}

	// Output initial connection status as JSON
	initOutput := output.NewJSONOutput("live", time.Now())
	initOutput.AddWarning("info", "Waiting for sender to connect...", 0)
	outputJSON(initOutput)

	if err := ing.Accept(); err != nil {
		ing.Close()
		return fmt.Errorf("error accepting connection: %w", err)
	}

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		shutdownOutput := output.NewJSONOutput("live", time.Now())
		shutdownOutput.AddWarning("info", "Received shutdown signal...", 0)
		outputJSON(shutdownOutput)
		ing.Close()
	}()

	var rejected uint64

	for {
		loopStart := time.Now()
		jsonOutput := output.NewJSONOutput("live", loopStart)

		batch, err := ing.ReadBatch()
		if err != nil {
			jsonOutput.AddError("read_batch", fmt.Sprintf("read error: %v", err), 1)
			outputJSON(jsonOutput)
			break
		}

		if len(batch) == 0 {
			if ing.IsClosed() {
				jsonOutput.AddWarning("info", "Ingestor closed. Exiting loop.", 0)
				outputJSON(jsonOutput)
				break
			}
			time.Sleep(time.Duration(params.SweepInterval) * time.Second)
			continue
		}

		now := time.Now()
		blocks := make([]gcode.Block, 0, len(batch))
		for _, line := range batch {
			words, err := parser.TokenizeLine([]byte(line.Text), opts)
			if err != nil {
				rejected++
				continue
			}
			if len(words) == 0 {
				continue
			}
			blocks = append(blocks, gcode.Block{Words: words})
		}
		win.Update(blocks, now)

		jsonOutput.LiveStats = &output.LiveStats{
			WindowSize:     win.Size(),
			ProcessedBatch: len(batch),
			LoopDurationMS: time.Since(loopStart).Milliseconds(),
			Letters:        liveLetters(win),
			RejectedLines:  rejected,
		}
		outputJSON(jsonOutput)

		time.Sleep(time.Duration(params.SweepInterval) * time.Second)
	}

	return nil
}

// liveLetters flattens the window's concurrent letter map in letter order.
func liveLetters(win *window.SlidingWindow) []output.LetterStat {
	snapshot := win.Letters()
	out := make([]output.LetterStat, 0, len(snapshot))
	for c := 0; c < 256; c++ {
		stat, ok := snapshot[byte(c)]
		if !ok {
			continue
		}
		out = append(out, output.LetterStat{
			Letter:  string(rune(c)),
			Count:   uint64(stat.Count),
			Numbers: uint64(stat.Numbers),
			Strings: uint64(stat.Strings),
		})
	}
	return out
}

// ============================================================================
// OUTPUT HELPERS
// ============================================================================

func outputJSON(jsonOutput *output.JSONOutput) {
	data, err := jsonOutput.ToJSON()
	if err != nil {
		fmt.Printf(`{"error": "%v"}`+"\n", err)
		return
	}
	fmt.Println(string(data))
}

func outputResult(jsonOutput *output.JSONOutput, outputConfig OutputConfig) {
	if outputConfig.Plain {
		fmt.Print(jsonOutput.RenderPlain())
		return
	}
	if outputConfig.Compact {
		data, err := jsonOutput.ToCompactJSON()
		if err != nil {
			fmt.Printf(`{"error": "%v"}`+"\n", err)
			return
		}
		fmt.Println(string(data))
		return
	}
	outputJSON(jsonOutput)
}
