package checkout

import (
	dto "github.com/prometheus/client_model/go"
)

func counterValue(mfs []*dto.MetricFamily, name, outcome string) float64 {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" && label.GetValue() == outcome {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
