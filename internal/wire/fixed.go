package wire

// Fixed is a Wayland 24.8 signed fixed-point number: the top 24 bits are
// the integer part, the low 8 bits are the fractional part.
type Fixed int32

// FixedFromFloat64 converts a float64 to wire Fixed representation.
func FixedFromFloat64(f float64) Fixed {
	return Fixed(int32(f * 256))
}

// FixedFromInt converts a plain integer to Fixed (no fractional part).
func FixedFromInt(i int) Fixed {
	return Fixed(int32(i) * 256)
}

// ToFloat64 returns the fixed-point value as a float64.
func (f Fixed) ToFloat64() float64 {
	return float64(f) / 256
}

// ToInt truncates the fixed-point value toward zero.
func (f Fixed) ToInt() int {
	return int(f) / 256
}
