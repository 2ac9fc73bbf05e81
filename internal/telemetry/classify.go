package telemetry

import (
	"air_quality_monitor/internal/models"
)

// Display colours per status.
const (
	ColorGood     = "#c8e6c9"
	ColorModerate = "#fff9c4"
	ColorPoor     = "#ffcdd2"
)

// Comfort bands. Good bounds are inclusive; the moderate bands sit just
// outside them on either side.
const (
	goodTempMin     = 18.0
	goodTempMax     = 28.0
	goodHumidityMin = 30.0
	goodHumidityMax = 60.0

	moderateTempMin     = 16.0
	moderateTempMax     = 32.0
	moderateHumidityMin = 25.0
	moderateHumidityMax = 70.0
)

// Classify evaluates the bands in order; the first match wins.
func Classify(temperature, humidity float64) models.Classification {
	if isGood(temperature, humidity) {
		return models.Classification{Status: models.StatusGood, Color: ColorGood}
	}
	if isModerate(temperature, humidity) {
		return models.Classification{Status: models.StatusModerate, Color: ColorModerate}
	}
	return models.Classification{Status: models.StatusPoor, Color: ColorPoor}
}

// LatestClassification classifies the last reading of the series, or returns nil when
// there is none.
func LatestClassification(series models.ReadingSeries) *models.Classification {
	latest := Latest(series)
	if latest == nil {
		return nil
	}
	c := Classify(latest.Temperature, latest.Humidity)
	return &c
}

func isGood(t, h float64) bool {
	return t >= goodTempMin && t <= goodTempMax &&
		h >= goodHumidityMin && h <= goodHumidityMax
}

// A single dimension in a boundary band is enough, whatever the other one is.
func isModerate(t, h float64) bool {
	return (t >= moderateTempMin && t < goodTempMin) ||
		(t > goodTempMax && t <= moderateTempMax) ||
		(h >= moderateHumidityMin && h < goodHumidityMin) ||
		(h > goodHumidityMax && h <= moderateHumidityMax)
}
