package validation

import (
	"context"
	"errors"
	"hash/fnv"
	"math"

	"github.com/joelkehle/idea-validation/internal/sources"
	"github.com/sirupsen/logrus"
)

const (
	minPlaceholderVolume = 1000
	maxPlaceholderVolume = 50000

	risingVolume = 1_000_000
	stableVolume = 100_000
)

// CollectMarketDemand scores search demand for up to five keywords. Volumes the
// provider cannot supply are replaced with deterministic placeholders.
func (e *Engine) CollectMarketDemand(ctx context.Context, keywords []string) MarketDemandSignal {
	log := signalLogger(e.log, SignalMarketDemand)
	if len(keywords) > maxSearchKeywords {
		keywords = keywords[:maxSearchKeywords]
	}
	sig := MarketDemandSignal{
		Keywords:   append([]string{}, keywords...),
		VolumeData: make([]KeywordVolume, 0, len(keywords)),
	}
	if e.volume == nil {
		sig.Fallback = true
	}

	volumes := make([]float64, 0, len(keywords))
	for _, kw := range keywords {
		kv := KeywordVolume{Keyword: kw}
		if e.volume != nil {
			v, err := e.volume.KeywordVolume(ctx, kw)
			if err != nil {
				logSourceError(log.WithField("keyword", kw), err, "keyword volume unavailable")
				kv.Volume, kv.Estimated = placeholderVolume(kw), true
				sig.Fallback = true
			} else {
				kv.Volume = max(0, v)
			}
		} else {
			kv.Volume, kv.Estimated = placeholderVolume(kw), true
		}
		sig.VolumeData = append(sig.VolumeData, kv)
		sig.TotalVolume += kv.Volume
		volumes = append(volumes, float64(kv.Volume))
	}

	sig.TrendDirection, sig.Trend = trendFromVolume(sig.TotalVolume)
	sig.GrowthRate = growthForTrend(sig.TrendDirection)
	sig.SeasonalVariance = seasonalVariance(volumes)
	sig.RawScore = MarketDemandRawScore(sig.TotalVolume, sig.TrendDirection, sig.GrowthRate)
	sig.Score = clampScore(sig.RawScore)
	return sig
}

// MarketDemandRawScore is the unclamped demand score. It can exceed 100.
// The volume term is fractional, so the sum is rounded once at the end.
func MarketDemandRawScore(volume, trendDirection, growthRate int) int {
	volumeScore := math.Min(100, float64(max(0, volume))/100000*50)
	trendScore := float64((trendDirection + 1) * 25)
	growthScore := float64(min(30, growthRate))
	return int(math.Round(volumeScore + trendScore + growthScore))
}

func placeholderVolume(keyword string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(keyword))
	span := uint32(maxPlaceholderVolume - minPlaceholderVolume + 1)
	return minPlaceholderVolume + int(h.Sum32()%span)
}

func trendFromVolume(total int) (int, string) {
	switch {
	case total > risingVolume:
		return 1, "rising"
	case total > stableVolume:
		return 0, "stable"
	default:
		return -1, "declining"
	}
}

func growthForTrend(direction int) int {
	switch direction {
	case 1:
		return 20
	case 0:
		return 10
	default:
		return 0
	}
}

// seasonalVariance labels the spread of per-keyword volumes by coefficient of variation.
func seasonalVariance(volumes []float64) string {
	if len(volumes) < 2 {
		return "low"
	}
	mean := 0.0
	for _, v := range volumes {
		mean += v
	}
	mean /= float64(len(volumes))
	if mean == 0 {
		return "low"
	}
	cv := populationStdDev(volumes) / mean
	switch {
	case cv < 0.25:
		return "low"
	case cv < 0.75:
		return "moderate"
	default:
		return "high"
	}
}

func logSourceError(log logrus.FieldLogger, err error, msg string) {
	if errors.Is(err, sources.ErrNotConfigured) {
		log.Debug(msg + ": not configured")
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.WithError(err).Warn(msg + ": timed out")
		return
	}
	log.WithError(err).Warn(msg)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
