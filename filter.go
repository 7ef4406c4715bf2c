package rasterkit

// 逐像元判断条件
type Predicate func(v float64) bool

func GreaterThan(threshold float64) Predicate {
	return func(v float64) bool {
		return v > threshold
	}
}

// 满足条件的像元保持原值，其余置为fill；不修改输入
func Filter(g Grid, pred Predicate, fill float64) Grid {
	ret := Grid{
		Width:  g.Width,
		Height: g.Height,
		Data:   make([]float64, len(g.Data)),
	}
	for i, v := range g.Data {
		if pred(v) {
			ret.Data[i] = v
		} else {
			ret.Data[i] = fill
		}
	}
	return ret
}

// 保留大于threshold的像元，其余置为nodata
func Threshold(g Grid, threshold, nodata float64) Grid {
	return Filter(g, GreaterThan(threshold), nodata)
}
