package baseline

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Machine is the machine-specific emission core driven by the Compiler.
// One Machine instance compiles one function at a time.
type Machine interface {
	// PrepareStackFrame reserves the prologue patch window. The final frame
	// size is unknown until the whole body has been lowered.
	PrepareStackFrame()
	// PatchPrepareStackFrame fills the patch window for the given frame
	// size, emitting the out-of-line large-frame path when needed.
	PatchPrepareStackFrame(frameSize int)
	// FinishCode runs once the body is lowered and the prologue patched.
	FinishCode()
	// AbortCompilation discards the emitted stream after a bailout.
	AbortCompilation()
	// Bailout returns the sticky bailout error, if any.
	Bailout() error
	// Reset clears all per-function state.
	Reset()
}

// Compiler drives per-function baseline compilation. It owns the safepoint
// table and the bailout policy; the Machine owns the instructions.
type Compiler struct {
	machine    Machine
	safepoints *SafepointTableBuilder
	cfg        Config
	log        logrus.FieldLogger

	funcIndex int
	inFunc    bool
}

// NewCompiler returns a Compiler driving the given machine.
func NewCompiler(m Machine, sp *SafepointTableBuilder, cfg Config, log logrus.FieldLogger) *Compiler {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	return &Compiler{machine: m, safepoints: sp, cfg: cfg, log: log}
}

// BeginFunction starts compiling function funcIndex: resets per-function
// state and reserves the prologue patch window.
func (c *Compiler) BeginFunction(funcIndex int) {
	if c.inFunc {
		panic("BeginFunction without EndFunction")
	}
	c.inFunc = true
	c.funcIndex = funcIndex
	c.machine.Reset()
	c.safepoints.Reset()
	c.machine.PrepareStackFrame()
}

// EndFunction finishes the current function: checks for a bailout, then
// patches the prologue with the final frame size. On bailout the emitted
// code is discarded and the error is returned wrapped.
func (c *Compiler) EndFunction(frameSize int) error {
	if !c.inFunc {
		panic("EndFunction without BeginFunction")
	}
	c.inFunc = false

	if err := c.machine.Bailout(); err != nil {
		c.machine.AbortCompilation()
		c.log.WithFields(logrus.Fields{
			"func":  c.funcIndex,
			"cause": err,
		}).Debug("baseline compilation bailed out")
		return fmt.Errorf("function %d: %w", c.funcIndex, err)
	}

	c.machine.PatchPrepareStackFrame(frameSize)
	c.machine.FinishCode()
	c.log.WithFields(logrus.Fields{
		"func":       c.funcIndex,
		"frame_size": frameSize,
		"safepoints": len(c.safepoints.Safepoints()),
	}).Debug("baseline compilation done")
	return nil
}

// IsBailout reports whether err is (or wraps) a baseline bailout.
func IsBailout(err error) bool {
	var b *BailoutError
	return errors.As(err, &b)
}
