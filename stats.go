package rasterkit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

type BandStats struct {
	Valid  int
	NoData int
	Min    float64
	Max    float64
	Sum    float64
	Mean   float64
}

func (s BandStats) String() string {
	return fmt.Sprintf("valid=%d nodata=%d min=%v max=%v sum=%v mean=%v", s.Valid, s.NoData, s.Min, s.Max, s.Sum, s.Mean)
}

// 统计有效像元；hasNoData为false时所有非NaN像元均视为有效
func ComputeStats(g Grid, nodata float64, hasNoData bool) (s BandStats) {
	valid := make([]float64, 0, len(g.Data))
	for _, v := range g.Data {
		if math.IsNaN(v) || (hasNoData && v == nodata) {
			s.NoData++
			continue
		}
		valid = append(valid, v)
	}
	s.Valid = len(valid)
	if s.Valid == 0 {
		return
	}
	s.Min = floats.Min(valid)
	s.Max = floats.Max(valid)
	s.Sum = floats.Sum(valid)
	s.Mean = s.Sum / float64(s.Valid)
	return
}
