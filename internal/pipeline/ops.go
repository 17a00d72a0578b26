// Package pipeline parses operation chains such as
// "gray|median:3|otsu" and runs them over images.
package pipeline

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/imagelab/internal/border"
	"github.com/MeKo-Tech/imagelab/internal/filter"
	"github.com/MeKo-Tech/imagelab/internal/pixel"
	"github.com/MeKo-Tech/imagelab/internal/point"
	"github.com/nfnt/resize"
)

// StepFunc transforms one buffer into the next.
type StepFunc func(*pixel.Buffer) (*pixel.Buffer, error)

// Step is one parsed operation of a chain.
type Step struct {
	Name string
	Args []string
	fn   StepFunc
}

// Apply runs the step.
func (s Step) Apply(b *pixel.Buffer) (*pixel.Buffer, error) {
	out, err := s.fn(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s, err)
	}
	return out, nil
}

func (s Step) String() string {
	if len(s.Args) == 0 {
		return s.Name
	}
	return s.Name + ":" + strings.Join(s.Args, ",")
}

// Chain is an ordered list of steps.
type Chain []Step

func (c Chain) String() string {
	parts := make([]string, len(c))
	for i, s := range c {
		parts[i] = s.String()
	}
	return strings.Join(parts, "|")
}

// Apply runs every step in order.
func (c Chain) Apply(b *pixel.Buffer) (*pixel.Buffer, error) {
	var err error
	for _, s := range c {
		if b, err = s.Apply(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

type builder func(args []string, pol border.Policy) (StepFunc, error)

var builders map[string]builder

func init() {
	builders = map[string]builder{
		"gray":      noArgs(func(b *pixel.Buffer) (*pixel.Buffer, error) { return pixel.ToGray(b), nil }),
		"negate":    noArgs(func(b *pixel.Buffer) (*pixel.Buffer, error) { return point.Negate(b), nil }),
		"binary":    buildBinary,
		"stretch":   buildStretch,
		"gamma":     buildGamma,
		"threshold": buildThreshold,
		"otsu":      noArgs(otsu),
		"adaptive":  buildAdaptive,
		"equalize":  noArgs(equalize),
		"add":       buildScalar(point.ScalarAdd),
		"mul":       buildScalar(point.ScalarMultiply),
		"div":       buildScalar(point.ScalarDivide),
		"blur":      buildBlur,
		"kernel":    buildKernel,
		"sobel":     buildGradient(filter.Sobel),
		"prewitt":   buildGradient(filter.Prewitt),
		"canny":     buildCanny,
		"median":    buildMedian,
		"erode":     buildMorph(filter.Erode),
		"dilate":    buildMorph(filter.Dilate),
		"open":      buildMorph(filter.Open),
		"close":     buildMorph(filter.Close),
		"logic":     buildLogic,
		"distance":  buildDistance,
		"resize":    buildResize,
	}
}

// Names lists the supported operation names.
func Names() []string {
	out := make([]string, 0, len(builders))
	for name := range builders {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Parse reads a chain of operations separated by "|". Each operation is
// a name optionally followed by ":" and comma separated arguments, e.g.
// "gamma:2.2|threshold:100,255". Neighborhood operations use pol.
func Parse(spec string, pol border.Policy) (Chain, error) {
	var chain Chain
	for _, part := range strings.Split(spec, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, rawArgs, _ := strings.Cut(part, ":")
		name = strings.ToLower(strings.TrimSpace(name))

		var args []string
		if rawArgs != "" {
			for _, a := range strings.Split(rawArgs, ",") {
				args = append(args, strings.TrimSpace(a))
			}
		}

		build, ok := builders[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown operation %q", pixel.ErrInvalidParameter, name)
		}
		fn, err := build(args, pol)
		if err != nil {
			return nil, fmt.Errorf("operation %q: %w", part, err)
		}
		chain = append(chain, Step{Name: name, Args: args, fn: fn})
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: empty operation chain", pixel.ErrInvalidParameter)
	}
	return chain, nil
}

func noArgs(fn StepFunc) builder {
	return func(args []string, _ border.Policy) (StepFunc, error) {
		if len(args) != 0 {
			return nil, fmt.Errorf("%w: takes no arguments", pixel.ErrInvalidParameter)
		}
		return fn, nil
	}
}

func argCount(args []string, lo, hi int) error {
	if len(args) < lo || len(args) > hi {
		if lo == hi {
			return fmt.Errorf("%w: want %d arguments, got %d", pixel.ErrInvalidParameter, lo, len(args))
		}
		return fmt.Errorf("%w: want %d to %d arguments, got %d", pixel.ErrInvalidParameter, lo, hi, len(args))
	}
	return nil
}

// single reduces color buffers to gray and passes the others through.
func single(b *pixel.Buffer) *pixel.Buffer {
	if b.Mode() == pixel.Color {
		return pixel.ToGray(b)
	}
	return b
}

func parseLevel(s string) (uint8, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 || v > 255 {
		return 0, fmt.Errorf("%w: level %q must be an integer in 0..255", pixel.ErrInvalidParameter, s)
	}
	return uint8(v), nil
}

func parseInt(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", pixel.ErrInvalidParameter, s)
	}
	return v, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", pixel.ErrInvalidParameter, s)
	}
	return v, nil
}

func buildBinary(args []string, _ border.Policy) (StepFunc, error) {
	if err := argCount(args, 0, 1); err != nil {
		return nil, err
	}
	level := uint8(pixel.DefaultBinaryLevel)
	if len(args) == 1 {
		var err error
		if level, err = parseLevel(args[0]); err != nil {
			return nil, err
		}
	}
	return func(b *pixel.Buffer) (*pixel.Buffer, error) { return pixel.ToBinary(b, level), nil }, nil
}

func buildStretch(args []string, _ border.Policy) (StepFunc, error) {
	if err := argCount(args, 0, 4); err != nil {
		return nil, err
	}
	if len(args) == 1 || len(args) == 3 {
		return nil, fmt.Errorf("%w: stretch takes lo,hi or lo,hi,outLo,outHi", pixel.ErrInvalidParameter)
	}
	levels := []uint8{0, 255, 0, 255}
	for i, a := range args {
		v, err := parseLevel(a)
		if err != nil {
			return nil, err
		}
		levels[i] = v
	}
	return func(b *pixel.Buffer) (*pixel.Buffer, error) {
		return point.LinearStretch(b, levels[0], levels[1], levels[2], levels[3])
	}, nil
}

func buildGamma(args []string, _ border.Policy) (StepFunc, error) {
	if err := argCount(args, 1, 1); err != nil {
		return nil, err
	}
	g, err := parseFloat(args[0])
	if err != nil {
		return nil, err
	}
	if g <= 0 {
		return nil, fmt.Errorf("%w: gamma must be positive", pixel.ErrInvalidParameter)
	}
	return func(b *pixel.Buffer) (*pixel.Buffer, error) { return point.GammaCorrect(b, g) }, nil
}

func buildThreshold(args []string, _ border.Policy) (StepFunc, error) {
	if err := argCount(args, 2, 3); err != nil {
		return nil, err
	}
	lo, err := parseLevel(args[0])
	if err != nil {
		return nil, err
	}
	hi, err := parseLevel(args[1])
	if err != nil {
		return nil, err
	}
	binary := true
	if len(args) == 3 {
		switch args[2] {
		case "binary":
		case "keep", "gray":
			binary = false
		default:
			return nil, fmt.Errorf("%w: threshold output %q, want binary or keep", pixel.ErrInvalidParameter, args[2])
		}
	}
	return func(b *pixel.Buffer) (*pixel.Buffer, error) {
		return point.Threshold(single(b), lo, hi, binary)
	}, nil
}

func otsu(b *pixel.Buffer) (*pixel.Buffer, error) {
	out, _, err := point.OtsuThreshold(single(b))
	return out, err
}

// equalize leaves flat images unchanged.
func equalize(b *pixel.Buffer) (*pixel.Buffer, error) {
	out, err := point.Equalize(b)
	if errors.Is(err, pixel.ErrDegenerateImage) {
		return b, nil
	}
	return out, err
}

func buildAdaptive(args []string, _ border.Policy) (StepFunc, error) {
	if err := argCount(args, 0, 3); err != nil {
		return nil, err
	}
	method := filter.AdaptiveGaussian
	block, c := filter.DefaultAdaptiveBlock, filter.DefaultAdaptiveC
	var err error
	if len(args) > 0 {
		if method, err = filter.ParseAdaptiveMethod(args[0]); err != nil {
			return nil, err
		}
	}
	if len(args) > 1 {
		if block, err = parseInt(args[1]); err != nil {
			return nil, err
		}
	}
	if len(args) > 2 {
		if c, err = parseInt(args[2]); err != nil {
			return nil, err
		}
	}
	return func(b *pixel.Buffer) (*pixel.Buffer, error) {
		return filter.AdaptiveThreshold(single(b), method, block, c)
	}, nil
}

func buildScalar(op point.ScalarOp) builder {
	return func(args []string, _ border.Policy) (StepFunc, error) {
		if err := argCount(args, 1, 2); err != nil {
			return nil, err
		}
		v, err := parseFloat(args[0])
		if err != nil {
			return nil, err
		}
		normalize := len(args) == 2 && args[1] == "normalize"
		if len(args) == 2 && !normalize {
			return nil, fmt.Errorf("%w: second argument must be normalize", pixel.ErrInvalidParameter)
		}
		return func(b *pixel.Buffer) (*pixel.Buffer, error) {
			return point.ScalarMath(b, op, v, normalize)
		}, nil
	}
}

func buildBlur(args []string, pol border.Policy) (StepFunc, error) {
	if err := argCount(args, 0, 1); err != nil {
		return nil, err
	}
	size := 3
	if len(args) == 1 {
		var err error
		if size, err = parseInt(args[0]); err != nil {
			return nil, err
		}
	}
	k, err := filter.BoxKernel(size)
	if err != nil {
		return nil, err
	}
	return func(b *pixel.Buffer) (*pixel.Buffer, error) {
		return filter.Blur(single(b), k, pol)
	}, nil
}

func buildKernel(args []string, pol border.Policy) (StepFunc, error) {
	if err := argCount(args, 1, 1); err != nil {
		return nil, err
	}
	k, err := filter.Named(args[0])
	if err != nil {
		return nil, err
	}
	return func(b *pixel.Buffer) (*pixel.Buffer, error) {
		if k.Sum() != 0 {
			return filter.Blur(single(b), k, pol)
		}
		return filter.Convolve(single(b), k, pol)
	}, nil
}

func buildGradient(v filter.GradientVariant) builder {
	return func(args []string, pol border.Policy) (StepFunc, error) {
		if err := argCount(args, 0, 1); err != nil {
			return nil, err
		}
		exact := true
		if len(args) == 1 {
			switch args[0] {
			case "exact":
			case "fast", "l1":
				exact = false
			default:
				return nil, fmt.Errorf("%w: magnitude %q, want exact or fast", pixel.ErrInvalidParameter, args[0])
			}
		}
		return func(b *pixel.Buffer) (*pixel.Buffer, error) {
			return filter.SobelPrewitt(single(b), v, exact, pol)
		}, nil
	}
}

func buildCanny(args []string, pol border.Policy) (StepFunc, error) {
	if err := argCount(args, 1, 1); err != nil {
		return nil, err
	}
	low, err := parseFloat(args[0])
	if err != nil {
		return nil, err
	}
	if low < 0 {
		return nil, fmt.Errorf("%w: canny low threshold must not be negative", pixel.ErrInvalidParameter)
	}
	return func(b *pixel.Buffer) (*pixel.Buffer, error) {
		return filter.Canny(single(b), low, pol)
	}, nil
}

func buildMedian(args []string, pol border.Policy) (StepFunc, error) {
	if err := argCount(args, 0, 1); err != nil {
		return nil, err
	}
	k := 3
	if len(args) == 1 {
		var err error
		if k, err = parseInt(args[0]); err != nil {
			return nil, err
		}
	}
	if k < 3 || k%2 == 0 {
		return nil, fmt.Errorf("%w: median size %d must be odd and at least 3", pixel.ErrInvalidParameter, k)
	}
	return func(b *pixel.Buffer) (*pixel.Buffer, error) {
		return filter.Median(single(b), k, pol)
	}, nil
}

func buildMorph(op filter.MorphOp) builder {
	return func(args []string, _ border.Policy) (StepFunc, error) {
		if err := argCount(args, 0, 1); err != nil {
			return nil, err
		}
		n := 1
		if len(args) == 1 {
			var err error
			if n, err = parseInt(args[0]); err != nil {
				return nil, err
			}
			if n < 1 {
				return nil, fmt.Errorf("%w: iterations must be positive", pixel.ErrInvalidParameter)
			}
		}
		return func(b *pixel.Buffer) (*pixel.Buffer, error) {
			b = single(b)
			var err error
			for i := 0; i < n; i++ {
				if b, err = filter.Morphology(b, op); err != nil {
					return nil, err
				}
			}
			return b, nil
		}, nil
	}
}

func buildLogic(args []string, pol border.Policy) (StepFunc, error) {
	if err := argCount(args, 1, 1); err != nil {
		return nil, err
	}
	pred, err := filter.ParsePredicate(args[0])
	if err != nil {
		return nil, err
	}
	return func(b *pixel.Buffer) (*pixel.Buffer, error) {
		return filter.LogicBordered(single(b), pred, pol)
	}, nil
}

func buildDistance(args []string, _ border.Policy) (StepFunc, error) {
	if err := argCount(args, 1, 1); err != nil {
		return nil, err
	}
	d, err := parseFloat(args[0])
	if err != nil {
		return nil, err
	}
	if d <= 0 {
		return nil, fmt.Errorf("%w: max distance must be positive", pixel.ErrInvalidParameter)
	}
	return func(b *pixel.Buffer) (*pixel.Buffer, error) {
		return filter.DistanceTransform(single(b), d)
	}, nil
}

// buildResize scales to width,height; a zero dimension keeps the aspect
// ratio. Binary images use nearest neighbor so they stay binary.
func buildResize(args []string, _ border.Policy) (StepFunc, error) {
	if err := argCount(args, 2, 2); err != nil {
		return nil, err
	}
	w, err := parseInt(args[0])
	if err != nil {
		return nil, err
	}
	h, err := parseInt(args[1])
	if err != nil {
		return nil, err
	}
	if w < 0 || h < 0 || (w == 0 && h == 0) {
		return nil, fmt.Errorf("%w: resize to %dx%d", pixel.ErrInvalidParameter, w, h)
	}
	return func(b *pixel.Buffer) (*pixel.Buffer, error) {
		interp := resize.Bilinear
		if b.Mode() == pixel.Binary {
			interp = resize.NearestNeighbor
		}
		out := pixel.FromImage(resize.Resize(uint(w), uint(h), b.Image(), interp))
		if b.Mode() == pixel.Binary {
			out = pixel.ToBinary(out, pixel.DefaultBinaryLevel)
		}
		return out, nil
	}, nil
}
