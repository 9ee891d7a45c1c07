package common

import "testing"

func TestDecimalToFixed(t *testing.T) {
	cases := []struct {
		in        float64
		precision int
		want      float64
	}{
		{17.25, 1, 17.3},
		{-17.25, 1, -17.3},
		{2.0 / 3.0, 2, 0.67},
		{1234.5, 0, 1235},
		{0, 3, 0},
	}
	for _, c := range cases {
		if got := DecimalToFixed(c.in, c.precision); got != c.want {
			t.Errorf("DecimalToFixed(%v, %d) = %v, want %v", c.in, c.precision, got, c.want)
		}
	}
}
