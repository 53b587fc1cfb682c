package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/blochsim/internal/bloch"
	"github.com/san-kum/blochsim/internal/config"
	"github.com/san-kum/blochsim/internal/grid"
	"github.com/san-kum/blochsim/internal/pulse"
	"github.com/san-kum/blochsim/internal/spin"
	"github.com/san-kum/blochsim/internal/storage"
	"github.com/san-kum/blochsim/internal/viz"
)

var (
	dataDir    string
	configFile string
	dt         float64
	steps      int
	t1         float64
	t2         float64
	live       bool
	noSave     bool
	useDemo    bool
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "blochsim",
		Short: "batched Bloch spin simulation",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".blochsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate a spin cube under a pulse",
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().Float64Var(&dt, "dt", 0, "dwell time override (s)")
	runCmd.Flags().IntVar(&steps, "steps", 0, "step count override")
	runCmd.Flags().Float64Var(&t1, "t1", 0, "T1 override (s)")
	runCmd.Flags().Float64Var(&t2, "t2", 0, "T2 override (s)")
	runCmd.Flags().BoolVar(&live, "live", false, "animate the run in the terminal")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "skip persisting the run")
	runCmd.Flags().BoolVar(&useDemo, "demo", false, "use the built-in demo cube and pulse")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	rootCmd.AddCommand(runCmd, listCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configFile == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(configFile)
}

// buildScene assembles the cube and pulse a run simulates.
func buildScene(cfg *config.Config) (*spin.Cube, *pulse.Pulse, error) {
	if useDemo {
		return spin.DemoCube(), spin.DemoPulse(), nil
	}

	im, err := grid.New(1, cfg.Grid[:], nil)
	if err != nil {
		return nil, nil, err
	}
	cube, err := spin.NewCube(im, cfg.FOV[:])
	if err != nil {
		return nil, nil, err
	}
	if err := cube.SetOffset(cfg.Offset[:]); err != nil {
		return nil, nil, err
	}
	pop := cube.Population()
	if err := pop.SetT1Compact([]float64{cfg.T1}); err != nil {
		return nil, nil, err
	}
	if err := pop.SetT2Compact([]float64{cfg.T2}); err != nil {
		return nil, nil, err
	}
	if err := pop.SetGammaCompact([]float64{cfg.Gamma}); err != nil {
		return nil, nil, err
	}

	var pl *pulse.Pulse
	switch cfg.Pulse.Shape {
	case "hard":
		rf := make([]float64, 2*cfg.Steps)
		for t := 0; t < cfg.Steps; t++ {
			rf[t] = cfg.Pulse.RFScale
		}
		pl, err = pulse.New(rf, nil, 1, cfg.Steps, cfg.Dt, "hard pulse")
	default:
		pl = spin.DemoPulse()
	}
	if err != nil {
		return nil, nil, err
	}
	return cube, pl, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dt > 0 {
		cfg.Dt = dt
	}
	if steps > 0 {
		cfg.Steps = steps
	}
	if t1 > 0 {
		cfg.T1 = t1
	}
	if t2 > 0 {
		cfg.T2 = t2
	}

	cube, pl, err := buildScene(cfg)
	if err != nil {
		return err
	}

	if live {
		model, err := viz.NewModel(cube, pl)
		if err != nil {
			return err
		}
		_, err = tea.NewProgram(model).Run()
		return err
	}

	pop := cube.Population()
	beff, err := cube.Beff(pl, nil)
	if err != nil {
		return err
	}
	params, err := bloch.NewStepParams(pop.Batch(), pop.NM(), bloch.Options{
		T1:    pop.T1Compact(),
		T2:    pop.T2Compact(),
		Gamma: pop.GammaCompact(),
		Dt:    []float64{pl.Dt},
	})
	if err != nil {
		return err
	}

	spins := pop.Batch() * pop.NM()
	cur := append([]float64(nil), pop.MCompact()...)
	scratch := make([]float64, spins*3)
	bt := make([]float64, spins*3)

	nT := pl.NT()
	times := make([]float64, 0, nT)
	rows := make([][]float64, 0, nT)
	mzHist := make([]float64, 0, nT)
	for t := 0; t < nT; t++ {
		bloch.GatherField(bt, beff, spins, nT, t)
		if cur, scratch, err = bloch.Step(cur, scratch, bt, params); err != nil {
			return err
		}
		mz, mxy := meanState(cur, spins)
		times = append(times, float64(t+1)*pl.Dt)
		rows = append(rows, []float64{mz, mxy})
		mzHist = append(mzHist, mz)
	}

	fmt.Println(titleStyle.Render("blochsim run"))
	fmt.Println(labelStyle.Render("pulse") + valueStyle.Render(pl.Desc))
	fmt.Println(labelStyle.Render("spins") + valueStyle.Render(fmt.Sprintf("%d (batch %d)", spins, pop.Batch())))
	fmt.Println(labelStyle.Render("steps") + valueStyle.Render(fmt.Sprintf("%d x %.2g s", nT, pl.Dt)))
	mz, mxy := meanState(cur, spins)
	fmt.Println(labelStyle.Render("final Mz") + valueStyle.Render(fmt.Sprintf("%.5f", mz)))
	fmt.Println(labelStyle.Render("final |Mxy|") + valueStyle.Render(fmt.Sprintf("%.5f", mxy)))
	fmt.Println()
	fmt.Println(asciigraph.Plot(mzHist, asciigraph.Height(10), asciigraph.Width(70), asciigraph.Caption("mean Mz")))

	if noSave {
		return nil
	}
	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return err
	}
	runID, err := store.Save(storage.RunMetadata{
		Pulse: pl.Desc,
		Batch: pop.Batch(),
		Spins: pop.NM(),
		Steps: nT,
		Dt:    pl.Dt,
		T1:    cfg.T1,
		T2:    cfg.T2,
	}, []string{"mz", "mxy"}, times, rows)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(labelStyle.Render("saved") + valueStyle.Render(runID))
	return nil
}

func meanState(m []float64, spins int) (mz, mxy float64) {
	for i := 0; i < spins; i++ {
		mxy += math.Hypot(m[i*3], m[i*3+1])
		mz += m[i*3+2]
	}
	return mz / float64(spins), mxy / float64(spins)
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no stored runs")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPULSE\tSPINS\tSTEPS\tDT\tWHEN")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.2g\t%s\n",
			r.ID, r.Pulse, r.Spins, r.Steps, r.Dt, r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}
