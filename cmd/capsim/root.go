package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tebeka/atexit"

	"github.com/sigsim/capture/capture"
	"github.com/sigsim/capture/datarec"
	"github.com/sigsim/capture/monitoring"
	"github.com/sigsim/capture/periph/adc"
	"github.com/sigsim/capture/sim"
)

var rootCmd = &cobra.Command{
	Use:   "capsim",
	Short: "Capsim runs a timer-paced analog capture and emits the samples.",
	Long: `Capsim simulates a trigger-timer, converter and transfer-engine ` +
		`capture pipeline, collects the requested number of samples into ` +
		`memory, and emits them as "<index> <value>" text records.`,
	RunE: runCapture,
}

func init() {
	flags := rootCmd.Flags()
	flags.Uint32("rate", 500000, "sample rate in Hz")
	flags.Int("channel", 3, "converter input channel")
	flags.Int("segments", 3, "number of transfer blocks")
	flags.Int("words", 1024, "words per transfer block")
	flags.String("waveform", "constant",
		"input waveform: constant, sine, or ramp")
	flags.Uint16("pattern", 0xaab, "value of the constant waveform")
	flags.Float64("wave-freq", 1000, "frequency of the sine/ramp waveform")
	flags.String("out", "-", "record output file, - for stdout")
	flags.Float64("timeout", 0,
		"maximum simulated seconds to wait, 0 for unbounded")
	flags.String("record", "", "record the run into a SQLite database")
	flags.Int("monitor", 0, "serve a monitoring API on this port")
	flags.Bool("open-browser", false, "open the monitor in a browser")
	flags.Bool("log-events", false, "log every simulation event to stderr")
}

// Execute runs the root command. Flag defaults can be overridden through a
// .env file.
func Execute() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func runCapture(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	out, closeOut, err := openOutput(mustString(flags.GetString("out")))
	if err != nil {
		return err
	}
	defer closeOut()

	waveform, err := pickWaveform(flags)
	if err != nil {
		return err
	}

	platform, err := capture.MakePlatformBuilder().
		WithWaveform(waveform).
		WithSerialOutput(out).
		Build("Chip")
	if err != nil {
		return err
	}

	if mustBool(flags.GetBool("log-events")) {
		logger := log.New(os.Stderr, "", 0)
		platform.Engine.AcceptHook(sim.NewEventLogger(logger))
	}

	session, err := capture.NewSession(platform, capture.Config{
		SampleRate:      mustUint32(flags.GetUint32("rate")),
		Channel:         mustInt(flags.GetInt("channel")),
		Segments:        mustInt(flags.GetInt("segments")),
		WordsPerSegment: mustInt(flags.GetInt("words")),
	})
	if err != nil {
		return err
	}

	if port := mustInt(flags.GetInt("monitor")); port != 0 {
		startMonitor(platform, session, port,
			mustBool(flags.GetBool("open-browser")))
	}

	if err := session.Setup(); err != nil {
		return err
	}

	timeout := mustFloat64(flags.GetFloat64("timeout"))
	if timeout > 0 {
		err = session.WaitFor(sim.VTimeInSec(timeout))
	} else {
		err = session.Wait()
	}
	if err != nil {
		return err
	}

	samples, err := session.Samples()
	if err != nil {
		return err
	}

	emitter := capture.NewEmitter(platform.Serial)
	if err := emitter.EmitRecords(samples); err != nil {
		return err
	}

	if dbPath := mustString(flags.GetString("record")); dbPath != "" {
		archiver := datarec.NewArchiver(datarec.NewRecorder(dbPath))
		if err := archiver.Archive(session); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr,
		"Captured %d samples in %.6f simulated seconds\n",
		len(samples), platform.Engine.CurrentTime())

	return nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "-" {
		return os.Stdout, func() {}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}

	return f, func() { f.Close() }, nil
}

func pickWaveform(flags *pflag.FlagSet) (adc.Waveform, error) {
	kind := mustString(flags.GetString("waveform"))
	freq := mustFloat64(flags.GetFloat64("wave-freq"))

	switch kind {
	case "constant":
		return adc.ConstantWave(mustUint16(flags.GetUint16("pattern"))), nil
	case "sine":
		return adc.SineWave{Freq: sim.Freq(freq), Amplitude: 1}, nil
	case "ramp":
		return adc.RampWave{Period: sim.VTimeInSec(1 / freq)}, nil
	default:
		return nil, fmt.Errorf("unknown waveform %q", kind)
	}
}

func startMonitor(
	p *capture.Platform,
	s *capture.Session,
	port int,
	openBrowser bool,
) {
	m := monitoring.NewMonitor().WithPortNumber(port)
	if openBrowser {
		m = m.WithBrowser()
	}

	m.RegisterEngine(p.Engine)
	m.RegisterComponent(p.Trigger)
	m.RegisterComponent(p.Converter)
	m.RegisterComponent(p.DMA)
	m.RegisterSession(s)
	m.StartServer()
}

func mustString(v string, err error) string { dieOnErr(err); return v }

func mustInt(v int, err error) int { dieOnErr(err); return v }

func mustBool(v bool, err error) bool { dieOnErr(err); return v }

func mustUint16(v uint16, err error) uint16 { dieOnErr(err); return v }

func mustUint32(v uint32, err error) uint32 { dieOnErr(err); return v }

func mustFloat64(v float64, err error) float64 { dieOnErr(err); return v }

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
