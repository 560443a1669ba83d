package policies

// PricingMetrics receives business counters from the handlers.
type PricingMetrics interface {
	QuoteComputed(outcome string)
	Recomputed(status string)
}

type NopMetrics struct{}

func (NopMetrics) QuoteComputed(string) {}
func (NopMetrics) Recomputed(string)    {}
