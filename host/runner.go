package host

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// ModuleName is the import module every host function lives in.
const ModuleName = "js"

// Config configures a run.
type Config struct {
	// Stdout receives the printed values, one per line.  Nil discards them.
	Stdout io.Writer

	// Entry is an exported function to call after the start function has
	// run.  Empty calls nothing.
	Entry string

	// Timeout bounds the run.  Zero means no bound.
	Timeout time.Duration
}

// Output is what a run produced.
type Output struct {
	// Values are the numbers printed with print_ln in order.
	Values []float64

	// Text is everything printed, numbers and characters alike.
	Text string

	// Results are the results of the entry function.
	Results []float64
}

// Run instantiates a module and runs its start function and the configured
// entry point.  Every run gets its own runtime.
func Run(ctx context.Context, module []byte, cfg Config) (*Output, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	r := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCloseOnContextDone(true))
	defer r.Close(ctx)

	h := &hostState{out: cfg.Stdout, start: time.Now()}
	if err := h.instantiate(ctx, r); err != nil {
		return nil, err
	}

	compiled, err := r.CompileModule(ctx, module)
	if err != nil {
		return nil, fmt.Errorf("compiling module: %w", err)
	}

	mod, err := r.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("program"))
	if err != nil {
		return nil, fmt.Errorf("running start function: %w", err)
	}

	out := &Output{}
	if cfg.Entry != "" {
		fn := mod.ExportedFunction(cfg.Entry)
		if fn == nil {
			return nil, fmt.Errorf("module does not export `%s`", cfg.Entry)
		}

		results, err := fn.Call(ctx)
		if err != nil {
			return nil, fmt.Errorf("calling `%s`: %w", cfg.Entry, err)
		}

		for i, vt := range fn.Definition().ResultTypes() {
			out.Results = append(out.Results, decodeResult(vt, results[i]))
		}
	}

	out.Values = h.values
	out.Text = h.text.String()
	return out, nil
}

// -----------------------------------------------------------------------------

// hostState is the state shared by the host functions of one run.
type hostState struct {
	out    io.Writer
	start  time.Time
	values []float64
	text   strings.Builder
}

func (h *hostState) instantiate(ctx context.Context, r wazero.Runtime) error {
	_, err := r.NewHostModuleBuilder(ModuleName).
		NewFunctionBuilder().WithFunc(h.printLn).Export("print_ln").
		NewFunctionBuilder().WithFunc(h.printCharcode).Export("print_charcode").
		NewFunctionBuilder().WithFunc(h.perfCounter).Export("perf_counter").
		Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("instantiating host module: %w", err)
	}

	return nil
}

func (h *hostState) printLn(_ context.Context, v float64) {
	h.values = append(h.values, v)
	h.write(FormatNumber(v) + "\n")
}

func (h *hostState) printCharcode(_ context.Context, c int32) {
	h.write(string(rune(c)))
}

// perfCounter returns the milliseconds elapsed since the run started.
func (h *hostState) perfCounter(_ context.Context) float64 {
	return float64(time.Since(h.start).Nanoseconds()) / 1e6
}

func (h *hostState) write(s string) {
	h.text.WriteString(s)
	if h.out != nil {
		io.WriteString(h.out, s)
	}
}

func decodeResult(vt api.ValueType, raw uint64) float64 {
	switch vt {
	case api.ValueTypeF64:
		return api.DecodeF64(raw)
	case api.ValueTypeF32:
		return float64(api.DecodeF32(raw))
	case api.ValueTypeI32:
		return float64(api.DecodeI32(raw))
	default:
		return float64(int64(raw))
	}
}

// FormatNumber formats a printed value: integral values print without a
// fraction.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	return strconv.FormatFloat(v, 'g', -1, 64)
}
