package portfolio

import (
	"encoding/json"
	"math"
)

// Ratio is a percentage that may be undefined. A ratio is undefined when the
// denominator is zero (a return over no investment, a share of an empty total)
// and also when the division overflows to an infinite or NaN result for a
// non-zero denominator, so very small denominators can yield undefined too.
// Callers must branch on IsDefined instead of reading Value blindly.
type Ratio struct {
	Value   float64
	Defined bool
}

func UndefinedRatio() Ratio {
	return Ratio{}
}

// Percent returns numerator/denominator*100, undefined for a zero denominator or a non-finite result.
func Percent(numerator, denominator float64) Ratio {
	if denominator == 0 {
		return UndefinedRatio()
	}
	v := numerator / denominator * 100
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return UndefinedRatio()
	}
	return Ratio{Value: v, Defined: true}
}

func (r Ratio) IsDefined() bool {
	return r.Defined
}

func (r Ratio) Float64() (float64, bool) {
	return r.Value, r.Defined
}

// MarshalJSON encodes an undefined ratio as null.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

func (r *Ratio) UnmarshalJSON(data []byte) error {
	var v *float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil {
		*r = UndefinedRatio()
		return nil
	}
	*r = Ratio{Value: *v, Defined: true}
	return nil
}
