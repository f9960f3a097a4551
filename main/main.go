package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"

	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/unirender/comm"
	"github.com/phil-mansfield/unirender/frames"
	"github.com/phil-mansfield/unirender/io"
	"github.com/phil-mansfield/unirender/output"
	"github.com/phil-mansfield/unirender/particle"
	"github.com/phil-mansfield/unirender/render"
)

// FileGroup contains utility files for logging and writing profiles to.
type FileGroup struct {
	log, prof *os.File
}

// Close closes the files inside FileGroup.
func (fg *FileGroup) Close() {
	if fg.log != nil {
		err := fg.log.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		err := fg.prof.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}
}

func main() {
	var (
		renderStr, interpolateStr string
		exampleConfig             string
		threads                   int
	)
	vars := map[string]*string{
		"Render":        &renderStr,
		"Interpolate":   &interpolateStr,
		"ExampleConfig": &exampleConfig,
	}

	flag.IntVar(
		&threads, "Threads", runtime.NumCPU(),
		"Number of threads used by each worker. Default is the number of "+
			"logical cores.",
	)
	flag.StringVar(
		&renderStr, "Render", "", "Configuration file for [Render] mode.",
	)
	flag.StringVar(
		&interpolateStr, "Interpolate", "",
		"Configuration file for [Interpolate] mode.",
	)
	flag.StringVar(
		&exampleConfig,
		"ExampleConfig", "", "Prints an example configuration file of the "+
			"specified type to stdout. Accepted arguments are 'Render' "+
			"and 'Interpolate'.",
	)

	flag.Parse()

	// Figure out the mode and fail with a descriptive error is the user gave
	// incorrect flags.
	modeName, err := getModeName(vars)
	if err != nil {
		log.Fatal(err.Error())
	}
	if threads <= 0 {
		log.Fatalf("Invalid 'Threads' value, %d.", threads)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	switch modeName {
	case "Render":
		wrap := io.DefaultRenderWrapper()
		err := gcfg.ReadFileInto(wrap, renderStr)
		if err != nil {
			log.Fatal(err.Error())
		}
		con := &wrap.Render

		if !con.ValidInput() {
			log.Fatal("Invalid/non-existent 'Input' value.")
		} else if !con.ValidFrames() {
			log.Fatal("Invalid/non-existent 'Frames' value.")
		} else if !con.ValidOutput() {
			log.Fatal("Invalid/non-existent 'Output' value.")
		} else if !con.ValidPixels() {
			log.Fatal("'PixelsX' and 'PixelsY' must both be positive.")
		} else if !con.ValidKernel() {
			log.Fatalf("Unrecognized 'Kernel' value, '%s'.", con.Kernel)
		} else if !con.ValidUp() {
			log.Fatal("'UpX', 'UpY', and 'UpZ' cannot all be zero.")
		} else if !con.ValidColumns() {
			log.Fatal("Column indices must be non-negative.")
		} else if !con.ValidTransport() {
			log.Fatal("'Transport' must be one of 'Local' or 'TCP'.")
		} else if !con.ValidWorkers() {
			log.Fatal("Invalid 'Workers' value.")
		} else if !con.ValidColorRange() {
			log.Fatal("'ColorMax' must be larger than 'ColorMin'.")
		} else if !con.ValidImageScale() {
			log.Fatal("'ImageScale' must be positive.")
		}

		w, err := writer(con)
		if err != nil {
			log.Fatal(err.Error())
		}
		if err := renderMain(ctx, con, w, threads); err != nil {
			log.Fatal(err.Error())
		}

	case "Interpolate":
		wrap := io.DefaultInterpolateWrapper()
		err := gcfg.ReadFileInto(wrap, interpolateStr)
		if err != nil {
			log.Fatal(err.Error())
		}
		con := &wrap.Interpolate

		if !con.ValidInput() {
			log.Fatal("Invalid/non-existent 'Input' value.")
		} else if !con.ValidOutput() {
			log.Fatal("Invalid/non-existent 'Output' value.")
		} else if !con.ValidTimeStep() {
			log.Fatal("'TimeStep' must be positive.")
		}

		if err := interpolateMain(con); err != nil {
			log.Fatal(err.Error())
		}

	case "ExampleConfig":
		switch strings.ToLower(exampleConfig) {
		case "render":
			fmt.Println(io.ExampleRenderFile)
		case "interpolate":
			fmt.Println(io.ExampleInterpolateFile)
		default:
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. Only recognized " +
					"arguments are 'Render' and 'Interpolate'.",
			)
		}
	default:
		panic("Impossible")
	}
}

// getModeName returns the name of the mode and fails with a descriptive error
// if the user provided less or more than one mode flag.
func getModeName(vars map[string]*string) (string, error) {
	setNames := []string{}

	for name, varPtr := range vars {
		if *varPtr != "" {
			setNames = append(setNames, name)
		}
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	}

	if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but unirender "+
				"only accepts one flag at a time.",
			strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

// setupIO redirects logging and starts profiling as requested by con.
func setupIO(con *io.SharedConfig) (*FileGroup, error) {
	fg := &FileGroup{}
	var err error

	if con.ValidLogFile() {
		fg.log, err = os.Create(con.LogFile)
		if err != nil {
			return nil, err
		}
		log.SetOutput(fg.log)
	}

	if con.ValidProfileFile() {
		fg.prof, err = os.Create(con.ProfileFile)
		if err != nil {
			fg.Close()
			return nil, err
		}
		err = pprof.StartCPUProfile(fg.prof)
		if err != nil {
			fg.prof.Close()
			fg.prof = nil
			fg.Close()
			return nil, err
		}
	}

	return fg, nil
}

// writer creates the sink described by con.
func writer(con *io.RenderConfig) (*output.Writer, error) {
	w := output.NewWriter(con.Output)

	var ok bool
	if w.GridFormat, ok = output.GridFormatFromString(con.GridFormat); !ok {
		return nil, fmt.Errorf("Unrecognized 'GridFormat' value, '%s'.",
			con.GridFormat)
	}
	if w.ImageFormat, ok = output.ImageFormatFromString(con.ImageFormat); !ok {
		return nil, fmt.Errorf("Unrecognized 'ImageFormat' value, '%s'.",
			con.ImageFormat)
	}

	w.ColorMin, w.ColorMax = con.ColorMin, con.ColorMax
	w.AutoColor = con.AutoColor
	w.ImageScale = con.ImageScale
	w.Kernel = con.Config(1).Kernel
	return w, nil
}

func renderMain(
	ctx context.Context, con *io.RenderConfig, w *output.Writer, threads int,
) error {
	fg, err := setupIO(&con.SharedConfig)
	if err != nil {
		return err
	}
	defer fg.Close()

	log.Println("Running Render main.")

	prefix := con.Prefix
	if prefix == "" {
		if prefix, err = frames.HashPrefix(con.Frames); err != nil {
			return err
		}
	}

	frs, err := frames.ReadFile(con.Frames)
	if err != nil {
		return err
	}
	log.Printf("Read %d frames from %s.", len(frs), con.Frames)

	ps, err := particle.Read(con.Input, con.Columns())
	if err != nil {
		return err
	}
	log.Printf("Read %d particles from %s.", ps.Len(), con.Input)

	if err := os.MkdirAll(con.Output, 0777); err != nil {
		return err
	}

	if !con.IsTCP() {
		if con.ValidTrajectoryPlot() {
			if err := frames.PlotTrajectory(frs, con.TrajectoryPlot); err != nil {
				return err
			}
		}
		rc := con.Config(workerThreads(threads, con.Workers))
		return render.RunLocal(ctx, ps, frs, w, prefix, rc, con.Workers)
	}

	rc := con.Config(threads)

	env, err := comm.FromEnv()
	if err != nil {
		return err
	}
	log.Printf("Worker %d/%d connecting to %s.", env.Rank, env.Size, env.Address)

	t, err := comm.Connect(ctx, env)
	if err != nil {
		return err
	}
	defer t.Close()

	if env.Rank == render.RootRank && con.ValidTrajectoryPlot() {
		if err := frames.PlotTrajectory(frs, con.TrajectoryPlot); err != nil {
			return err
		}
	}

	man, err := render.NewManager(ps, t, rc)
	if err != nil {
		return err
	}
	start, end := man.Partition()
	log.Printf("Worker %d owns particles [%d, %d).", env.Rank, start, end)

	return man.Run(ctx, frs, w, prefix)
}

// workerThreads splits threads among the workers of a local group. Every
// worker gets at least one.
func workerThreads(threads, workers int) int {
	if workers <= 1 {
		return threads
	}
	if n := threads / workers; n > 1 {
		return n
	}
	return 1
}

func interpolateMain(con *io.InterpolateConfig) error {
	fg, err := setupIO(&con.SharedConfig)
	if err != nil {
		return err
	}
	defer fg.Close()

	log.Println("Running Interpolate main.")

	keys, err := frames.ReadFile(con.Input)
	if err != nil {
		return err
	}
	frs, err := frames.Interpolate(keys, con.TimeStep)
	if err != nil {
		return err
	}
	if err := frames.WriteFile(con.Output, frs); err != nil {
		return err
	}
	log.Printf("Wrote %d frames interpolated from %d keyframes to %s.",
		len(frs), len(keys), con.Output)

	if con.ValidTrajectoryPlot() {
		return frames.PlotTrajectory(frs, con.TrajectoryPlot)
	}
	return nil
}
