// Command rivet-dump compiles a small built-in demo function with the
// baseline code generator and prints the resulting riscv64 listing. It
// exists to eyeball the emitted sequences without a wasm embedding.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mstoykov/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	asm "github.com/wasmkit/rivet/internal/asm/riscv"
	"github.com/wasmkit/rivet/internal/engine/baseline"
	"github.com/wasmkit/rivet/internal/engine/baseline/riscv"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		logLevel  string
		frameSize int
	)
	cfg := baseline.DefaultConfig()

	cmd := &cobra.Command{
		Use:          "rivet-dump",
		Short:        "dump baseline-compiled riscv64 listings",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := envconfig.Process("", &cfg); err != nil {
				return fmt.Errorf("reading environment: %w", err)
			}

			log := logrus.New()
			lvl, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("parsing log level: %w", err)
			}
			log.SetLevel(lvl)

			return dump(cmd, cfg, frameSize, log)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&logLevel, "log-level", "info", "logrus level for compile diagnostics")
	flags.IntVar(&frameSize, "frame-size", 64, "stack frame size in bytes for the demo function")
	flags.IntVar(&cfg.StackSizeKB, "stack-size-kb", cfg.StackSizeKB, "maximum wasm stack size in KiB")
	flags.BoolVar(&cfg.DebugCode, "debug-code", cfg.DebugCode, "emit debug break instructions on slow paths")
	return cmd
}

// dump runs one compilation of the demo body and writes the listing.
func dump(cmd *cobra.Command, cfg baseline.Config, frameSize int, log logrus.FieldLogger) error {
	sp := &baseline.SafepointTableBuilder{}
	m := riscv.New(cfg, sp, log)
	c := baseline.NewCompiler(m, sp, cfg, log)

	c.BeginFunction(0)
	emitDemoBody(m)
	if err := c.EndFunction(frameSize); err != nil {
		return err
	}

	header := color.New(color.FgCyan, color.Bold)
	header.Fprintf(cmd.OutOrStdout(), "function 0 (frame %d bytes)\n", frameSize)
	fmt.Fprint(cmd.OutOrStdout(), m.Text())

	if spts := sp.Safepoints(); len(spts) > 0 {
		header.Fprintln(cmd.OutOrStdout(), "safepoints")
		for _, s := range spts {
			fmt.Fprintf(cmd.OutOrStdout(), "%#06x  tagged slots %v\n", s.PC, s.TaggedSlots)
		}
	}
	return nil
}

// emitDemoBody touches each lowering family once so the listing shows the
// frame prologue, a scalar sequence, and a handful of vector sequences.
func emitDemoBody(m *riscv.Assembler) {
	m.LoadInstanceFromFrame(asm.RegS1)
	ool := m.AllocateLabel()
	m.StackCheck(ool, asm.RegS1)

	m.EmitFloatBinOp(baseline.FloatAdd, baseline.KindF64, asm.RegFT0, asm.RegFT1, asm.RegFT2)
	m.EmitFloatMinMax(baseline.KindF32, asm.RegFT0, asm.RegFT1, asm.RegFT2, true)
	m.EmitSetCond(baseline.LessThan, asm.RegA0, asm.RegA1, asm.RegA2)

	m.EmitSplat(baseline.I32x4, asm.RegV8, asm.RegA0)
	m.EmitIntBinOp(baseline.I32x4, baseline.VecAdd, asm.RegV8, asm.RegV8, asm.RegV9)
	m.EmitRoundingAverageU(baseline.I8x16, asm.RegV10, asm.RegV8, asm.RegV9)
	m.EmitTruncSatF32x4(asm.RegV12, asm.RegV11, true)
	m.EmitExtractLane(baseline.I32x4, asm.RegA0, asm.RegV8, 1, true)

	regs := baseline.NewRegSet(asm.RegA0, asm.RegS1, asm.RegFT0, asm.RegV8)
	m.PushRegisters(regs)
	m.PopRegisters(regs)

	m.Bind(ool)
	m.CallRuntimeStub(asm.StubStackOverflow)
}
