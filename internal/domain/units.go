package domain

import (
	"fmt"
	"math"
)

// Unit names a measurement unit as tagged by a source reader.
type Unit string

const (
	UnitCelsius    Unit = "celsius"
	UnitFahrenheit Unit = "fahrenheit"
	UnitPercent    Unit = "percent"
	UnitIndex      Unit = "index"
)

// FahrenheitToCelsius converts by the exact linear relation C = (F-32)*5/9.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

// CelsiusToFahrenheit is the inverse conversion, used by fixtures and tests.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// CanonicalUnit returns the single unit a metric uses at the output table
// boundary.
func CanonicalUnit(m Metric) Unit {
	switch m {
	case MetricHumidityIndex:
		return UnitIndex
	case MetricRelativeHumidity:
		return UnitPercent
	default:
		return UnitCelsius
	}
}

// plausibleRange returns the closed physical domain for a metric's
// canonical value. Temperatures span the recorded global extremes with
// margin; anything outside is a sensor sentinel, not weather.
func plausibleRange(m Metric) (min, max float64) {
	switch m {
	case MetricRelativeHumidity:
		return 0, 100
	case MetricHumidityIndex:
		return 0, 150
	case MetricDewPoint:
		return -100, 40
	default:
		return -90, 65
	}
}

// Canonicalize converts a coerced value from its source unit into the
// metric's canonical unit and checks plausibility. Out-of-domain values
// fail with ErrImplausibleValue; unknown unit tags are a structural
// problem in the reader and fail with ErrMalformedSource.
func Canonicalize(m Metric, unit Unit, v float64) (float64, error) {
	canonical := CanonicalUnit(m)
	switch unit {
	case canonical:
		// already canonical
	case UnitFahrenheit:
		if canonical != UnitCelsius {
			return 0, fmt.Errorf("%w: fahrenheit value for non-temperature metric %s", ErrMalformedSource, m)
		}
		v = FahrenheitToCelsius(v)
	default:
		return 0, fmt.Errorf("%w: unknown unit %q for metric %s", ErrMalformedSource, unit, m)
	}

	if min, max := plausibleRange(m); v < min || v > max {
		return 0, fmt.Errorf("%w: %s %.2f outside [%.0f, %.0f]", ErrImplausibleValue, m, v, min, max)
	}
	return v, nil
}

// DewPoint derives the dew point from Celsius temperature and relative
// humidity in percent, using the Magnus approximation.
func DewPoint(tempC, rhPercent float64) float64 {
	const a, b = 17.62, 243.12
	gamma := math.Log(rhPercent/100) + a*tempC/(b+tempC)
	return b * gamma / (a - gamma)
}

// DiscomfortIndex derives the Japanese discomfort index (不快指数) from
// Celsius temperature and relative humidity in percent.
func DiscomfortIndex(tempC, rhPercent float64) float64 {
	return 0.81*tempC + 0.01*rhPercent*(0.99*tempC-14.3) + 46.3
}

// DeriveComfortMetrics appends dew_point and humidity_index observations
// for every (entity, date) that carries both a canonical average
// temperature and relative humidity, then removes the intermediate
// relative humidity rows. Derivation only ever sees canonicalized inputs.
// Order is deterministic: kept rows retain input order, derived rows
// append in the order their temperature row appeared.
func DeriveComfortMetrics(observations []Observation) []Observation {
	type pair struct {
		temp float64
		rh   float64
		has  uint8 // bit 0: temp, bit 1: rh
	}

	pairs := make(map[string]*pair)
	key := func(o Observation) string { return o.EntityID + "|" + DateKey(o.Date) }

	for _, o := range observations {
		switch o.Metric {
		case MetricAverageTemperature, MetricRelativeHumidity:
		default:
			continue
		}
		p := pairs[key(o)]
		if p == nil {
			p = &pair{}
			pairs[key(o)] = p
		}
		// First value per side wins, matching dedupe policy.
		if o.Metric == MetricAverageTemperature && p.has&1 == 0 {
			p.temp, p.has = o.Value, p.has|1
		}
		if o.Metric == MetricRelativeHumidity && p.has&2 == 0 {
			p.rh, p.has = o.Value, p.has|2
		}
	}

	out := make([]Observation, 0, len(observations))
	var derived []Observation
	for _, o := range observations {
		if o.Metric == MetricRelativeHumidity {
			continue
		}
		out = append(out, o)

		if o.Metric != MetricAverageTemperature {
			continue
		}
		p := pairs[key(o)]
		if p == nil || p.has != 3 || p.temp != o.Value {
			continue
		}
		for _, d := range []struct {
			metric Metric
			value  float64
		}{
			{MetricDewPoint, DewPoint(p.temp, p.rh)},
			{MetricHumidityIndex, DiscomfortIndex(p.temp, p.rh)},
		} {
			derived = append(derived, Observation{
				ID:           ObservationID(o.EntityID, o.Date, d.metric),
				EntityID:     o.EntityID,
				Date:         o.Date,
				Metric:       d.metric,
				Value:        d.value,
				Unit:         CanonicalUnit(d.metric),
				Source:       o.Source,
				DisplayName:  o.DisplayName,
				ParentRegion: o.ParentRegion,
				ProcessedAt:  o.ProcessedAt,
				Hint:         o.Hint,
			})
		}
	}
	return append(out, derived...)
}
