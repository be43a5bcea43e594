package globe

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/earthview/globe/internal/globe"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
