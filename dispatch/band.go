package dispatch

import (
	"time"

	"github.com/khaledhikmat/exhibit-guide/service/config"
)

type Band int

const (
	BandNone Band = iota
	BandGray
	BandStrong
)

func (b Band) String() string {
	switch b {
	case BandGray:
		return "gray"
	case BandStrong:
		return "strong"
	default:
		return "none"
	}
}

// Classify places a probability into its confidence band.
func Classify(probability, threshold, dispatchThreshold float64) Band {
	switch {
	case probability >= dispatchThreshold:
		return BandStrong
	case probability >= threshold:
		return BandGray
	default:
		return BandNone
	}
}

type Options struct {
	Threshold             float64
	DispatchThreshold     float64
	MinDispatchInterval   time.Duration
	MinVlmInterval        time.Duration
	MaxCacheAge           time.Duration
	CameraMoveThresholdPx float64
	LabelHide             time.Duration
	DescriptionHide       time.Duration
	ThinkingEscalation    time.Duration
	Persist               time.Duration
	MaxDetections         int
}

func DefaultOptions() Options {
	return OptionsFromParameters(config.NewDefault().GetDetectorParameters())
}

func OptionsFromParameters(p config.DetectorParameters) Options {
	ms := func(v int) time.Duration {
		return time.Duration(v) * time.Millisecond
	}

	return Options{
		Threshold:             p.Threshold,
		DispatchThreshold:     p.DispatchThreshold,
		MinDispatchInterval:   ms(p.MinDispatchIntervalMs),
		MinVlmInterval:        ms(p.MinVlmIntervalMs),
		MaxCacheAge:           ms(p.MaxCacheAgeMs),
		CameraMoveThresholdPx: p.CameraMoveThresholdPx,
		LabelHide:             ms(p.LabelHideMs),
		DescriptionHide:       ms(p.DescriptionHideMs),
		ThinkingEscalation:    ms(p.ThinkingEscalationMs),
		Persist:               ms(p.PersistMs),
		MaxDetections:         p.MaxDetections,
	}
}
