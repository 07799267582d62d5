package gdb

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/agentstation/geomanifest/internal/utils/ptr"
)

// fieldAccumulator collects the values of one column while records stream.
type fieldAccumulator struct {
	profile FieldProfile
	numeric bool

	nulls int
	n     int
	min   float64
	max   float64
	// Welford running mean and sum of squared deviations.
	mean float64
	m2   float64

	counts map[string]int
}

func newFieldAccumulator(col Column) *fieldAccumulator {
	dtype := NormalizeType(col.Type)
	return &fieldAccumulator{
		profile: FieldProfile{Name: col.Name, DType: dtype},
		numeric: IsNumeric(dtype),
		counts:  make(map[string]int),
	}
}

func (a *fieldAccumulator) add(v any) {
	if v == nil {
		a.nulls++
		return
	}
	if a.numeric {
		f, ok := toFloat(v)
		if !ok || math.IsNaN(f) {
			a.nulls++
			return
		}
		a.addNumber(f)
		return
	}
	if a.profile.DType == TypeBytes {
		return
	}
	a.counts[toKey(v)]++
}

func (a *fieldAccumulator) addNumber(f float64) {
	a.n++
	if a.n == 1 {
		a.min, a.max = f, f
	} else {
		a.min = math.Min(a.min, f)
		a.max = math.Max(a.max, f)
	}
	delta := f - a.mean
	a.mean += delta / float64(a.n)
	a.m2 += delta * (f - a.mean)
}

// finish returns the profile; topN caps the categorical histogram.
func (a *fieldAccumulator) finish(topN int) FieldProfile {
	p := a.profile
	p.NullCount = a.nulls
	if a.numeric {
		if a.n > 0 {
			p.Min = ptr.To(a.min)
			p.Max = ptr.To(a.max)
			p.Mean = ptr.To(a.mean)
		}
		if a.n > 1 {
			p.Std = ptr.To(math.Sqrt(a.m2 / float64(a.n-1)))
		}
		return p
	}
	if p.DType == TypeBytes {
		return p
	}
	p.UniqueCount = ptr.Int(len(a.counts))
	if len(a.counts) > 0 {
		p.TopValues = TopN(a.counts, topN)
	}
	return p
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(string(x), 64)
		return f, err == nil
	}
	return 0, false
}

func toKey(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	return fmt.Sprint(v)
}
