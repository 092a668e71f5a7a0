package util

func FloatPtr(v float64) *float64 {
	return &v
}
