// Package main renders an HTML report of recorded frame-transport stats.
// It reads the sqlite database written by the ledwall driver and charts
// bytes-per-frame and the full-versus-sparse decision over a session, which
// is how encoder changes get sanity-checked against real workloads.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/ledwall/internal/stats"
)

var (
	dbPath    = flag.String("db", "ledwall_stats.db", "Path to the stats sqlite database")
	sessionID = flag.String("session", "", "Session to report on (default: most recent)")
	output    = flag.String("output", "frame_report.html", "Output HTML file")
	list      = flag.Bool("list", false, "List recorded sessions and exit")
)

func main() {
	flag.Parse()

	store, err := stats.OpenStore(*dbPath)
	if err != nil {
		log.Fatalf("failed to open stats db: %v", err)
	}
	defer store.Close()

	if *list {
		if err := listSessions(store); err != nil {
			log.Fatalf("failed to list sessions: %v", err)
		}
		return
	}

	session := *sessionID
	if session == "" {
		session, err = store.LatestSessionID()
		if err != nil {
			log.Fatalf("failed to pick session: %v", err)
		}
	}

	frames, err := store.Frames(session)
	if err != nil {
		log.Fatalf("failed to load frames: %v", err)
	}
	if len(frames) == 0 {
		log.Fatalf("session %s has no recorded frames", session)
	}

	if err := renderReport(*output, session, frames); err != nil {
		log.Fatalf("failed to render report: %v", err)
	}
	fmt.Printf("Report: %s (%d frames, session %s)\n", *output, len(frames), session)
}

func listSessions(store *stats.Store) error {
	sessions, err := store.Sessions()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions recorded.")
		return nil
	}
	for _, s := range sessions {
		fmt.Printf("%s  %-10s  %6d frames  %8d bytes  (full=%d sparse=%d)  %s\n",
			s.SessionID, s.Scene, s.Frames, s.TotalBytes,
			s.FullFrames, s.SparseCount, s.StartedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func renderReport(path, session string, frames []stats.FrameRecord) error {
	x := make([]string, len(frames))
	bytesSeries := make([]opts.LineData, len(frames))
	dirtySeries := make([]opts.LineData, len(frames))
	renderSeries := make([]opts.LineData, len(frames))

	modeCounts := map[string]int{}
	for i, f := range frames {
		x[i] = fmt.Sprintf("%d", f.Frame)
		bytesSeries[i] = opts.LineData{Value: f.Bytes}
		dirtySeries[i] = opts.LineData{Value: f.Dirty}
		renderSeries[i] = opts.LineData{Value: float64(f.RenderTime.Microseconds()) / 1000.0}
		modeCounts[f.Mode]++
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Frame Transport Report", Theme: "dark", Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Bytes and dirty pixels per frame",
			Subtitle: fmt.Sprintf("session=%s frames=%d", session, len(frames)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(x).
		AddSeries("payload bytes", bytesSeries).
		AddSeries("dirty pixels", dirtySeries)

	renderLine := charts.NewLine()
	renderLine.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "1200px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Render time per frame (ms)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	renderLine.SetXAxis(x).AddSeries("render ms", renderSeries)

	modes := charts.NewBar()
	modes.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "600px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Transmit mode distribution"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	modeNames := []string{"full", "sparse", "json", "skip"}
	modeData := make([]opts.BarData, len(modeNames))
	for i, name := range modeNames {
		modeData[i] = opts.BarData{Value: modeCounts[name]}
	}
	modes.SetXAxis(modeNames).
		AddSeries("frames", modeData,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.AddCharts(line, renderLine, modes)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}
