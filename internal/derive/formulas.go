package derive

import "math"

// heatIndexC computes the NWS heat index from temperature (degree_C) and
// relative humidity (percent). Inputs without a reading produce no reading.
func heatIndexC(tC, rh *float64) *float64 {
	if tC == nil || rh == nil {
		return nil
	}

	tF := *tC*9.0/5.0 + 32.0
	if tF < 80.0 || *rh < 40.0 {
		v := *tC
		return &v
	}

	r := *rh
	hiF := -42.379 + 2.04901523*tF + 10.14333127*r +
		-0.22475541*tF*r - 6.83783e-3*tF*tF - 5.481717e-2*r*r +
		1.22874e-3*tF*tF*r + 8.5282e-4*tF*r*r - 1.99e-6*tF*tF*r*r
	if hiF < tF {
		hiF = tF
	}

	hiC := (hiF - 32.0) * 5.0 / 9.0
	return &hiC
}

// dewPointC computes the dew point (degree_C) from temperature (degree_C)
// and relative humidity (percent) using the Magnus approximation.
func dewPointC(tC, rh *float64) *float64 {
	if tC == nil || rh == nil || *rh <= 0 {
		return nil
	}

	const (
		a = 17.27
		b = 237.7
	)
	gamma := a**tC/(b+*tC) + math.Log(*rh/100.0)
	if gamma >= a {
		return nil
	}
	dp := b * gamma / (a - gamma)
	return &dp
}

// invertBattery flips a battery status flag between the station convention
// (1 = fault) and the WeatherCloud convention (0 = fault).
func invertBattery(v *float64) *float64 {
	if v == nil {
		return nil
	}
	var out float64
	if *v == 0 {
		out = 1
	}
	return &out
}

// normalizeDirection wraps a wind direction into [0,359]. Source values
// only ever overshoot by less than a full turn, so a single step suffices.
func normalizeDirection(v *float64) *float64 {
	if v == nil || *v <= 359 {
		return v
	}
	out := *v - 360
	return &out
}
