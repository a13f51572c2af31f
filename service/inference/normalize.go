package inference

import (
	"math"
	"sort"
	"strconv"

	"github.com/khaledhikmat/exhibit-guide/model"
)

// Normalize maps the raw model outputs onto detections. The model contract is
// three outputs: boxes [N,4] as normalized corners [ymin, xmin, ymax, xmax],
// scores [N] and classes [N]. Rows below threshold are skipped; rows that break
// the contract are counted as rejected. The result is sorted by probability.
func Normalize(boxes, scores, classes []float32, labels []string, threshold float64) ([]model.Detection, int) {
	n := len(boxes) / 4
	if len(scores) < n {
		n = len(scores)
	}
	if len(classes) < n {
		n = len(classes)
	}

	detections := []model.Detection{}
	rejected := 0
	for i := 0; i < n; i++ {
		prob := float64(scores[i])
		if !finite(prob) || prob < 0 || prob > 1 {
			rejected++
			continue
		}
		if prob < threshold {
			continue
		}

		box, ok := cornersToBox(boxes[i*4 : i*4+4])
		if !ok {
			rejected++
			continue
		}

		detections = append(detections, model.Detection{
			Label:       labelFor(classes[i], labels),
			Probability: prob,
			BoundingBox: box,
		})
	}

	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].Probability > detections[j].Probability
	})

	return detections, rejected
}

func cornersToBox(c []float32) (model.BoundingBox, bool) {
	ymin, xmin, ymax, xmax := float64(c[0]), float64(c[1]), float64(c[2]), float64(c[3])
	for _, v := range []float64{ymin, xmin, ymax, xmax} {
		if !finite(v) || v < 0 || v > 1 {
			return model.BoundingBox{}, false
		}
	}
	if ymax <= ymin || xmax <= xmin {
		return model.BoundingBox{}, false
	}

	return model.BoundingBox{
		Left:   xmin,
		Top:    ymin,
		Width:  xmax - xmin,
		Height: ymax - ymin,
	}, true
}

func labelFor(class float32, labels []string) string {
	idx := int(math.Round(float64(class)))
	if idx >= 0 && idx < len(labels) {
		return labels[idx]
	}
	return strconv.Itoa(idx)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
