package drift

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/unklstewy/shipnav/pkg/navigation"
)

// Constant returns a uniform stream f(x) = c.
func Constant(c float64) navigation.DriftFunc {
	return func(float64) float64 { return c }
}

// Linear returns a sheared stream f(x) = a*x + b.
func Linear(a, b float64) navigation.DriftFunc {
	return func(x float64) float64 { return a*x + b }
}

// Parabolic returns a channel profile that peaks at 1 on x = center and
// falls to 0 at center ± halfWidth. Outside the channel it goes negative.
func Parabolic(center, halfWidth float64) navigation.DriftFunc {
	return func(x float64) float64 {
		r := (x - center) / halfWidth
		return 1 - r*r
	}
}

// Resolve turns a profile name or expression into a drift function.
//
// Accepted forms:
//   - "constant:c"
//   - "linear:a,b"
//   - "parabolic:center,halfWidth"
//   - anything else is compiled as an expression in x
func Resolve(spec string) (navigation.DriftFunc, error) {
	name, args, found := strings.Cut(strings.TrimSpace(spec), ":")
	if !found {
		e, err := Compile(spec)
		if err != nil {
			return nil, err
		}
		return e.Func(), nil
	}

	nums, err := parseArgs(args)
	if err != nil {
		return nil, fmt.Errorf("invalid %s profile: %w", name, err)
	}

	switch strings.ToLower(name) {
	case "constant":
		if len(nums) != 1 {
			return nil, fmt.Errorf("constant profile takes 1 argument, got %d", len(nums))
		}
		return Constant(nums[0]), nil
	case "linear":
		if len(nums) != 2 {
			return nil, fmt.Errorf("linear profile takes 2 arguments, got %d", len(nums))
		}
		return Linear(nums[0], nums[1]), nil
	case "parabolic":
		if len(nums) != 2 {
			return nil, fmt.Errorf("parabolic profile takes 2 arguments, got %d", len(nums))
		}
		if nums[1] == 0 {
			return nil, fmt.Errorf("parabolic profile half width must be non-zero")
		}
		return Parabolic(nums[0], nums[1]), nil
	default:
		return nil, fmt.Errorf("unknown drift profile %q", name)
	}
}

func parseArgs(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	nums := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		nums = append(nums, v)
	}
	return nums, nil
}
