package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// UxasEnvelopeAcceptedCounter counts envelopes that parsed and passed the tunnel filters
	UxasEnvelopeAcceptedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "uxas_envelope_accepted",
		Help: "The number of envelopes accepted by the tunnel",
	})
	// UxasEnvelopeRejectedCounter counts envelopes that were malformed or filtered out
	UxasEnvelopeRejectedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "uxas_envelope_rejected",
		Help: "The number of envelopes rejected by the tunnel",
	})
	// UxasEnvelopeForwardSuccessCounter counts envelopes written to the bridge
	UxasEnvelopeForwardSuccessCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "uxas_envelope_forward_success",
		Help: "The number of envelopes successfully forwarded to the bridge",
	})
	// UxasEnvelopeForwardErrorCounter counts envelopes that could not be written to the bridge
	UxasEnvelopeForwardErrorCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "uxas_envelope_forward_error",
		Help: "The number of envelopes that failed to be forwarded to the bridge",
	})
	// UxasEnvelopeReceivedCounter counts envelopes read back from the bridge
	UxasEnvelopeReceivedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "uxas_envelope_received",
		Help: "The number of envelopes received from the bridge",
	})
	// UxasEnvelopeReceiveErrorCounter counts bridge frames that did not hold an envelope
	UxasEnvelopeReceiveErrorCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "uxas_envelope_receive_error",
		Help: "The number of malformed envelopes received from the bridge",
	})
)

func init() {
	prometheus.MustRegister(UxasEnvelopeAcceptedCounter)
	prometheus.MustRegister(UxasEnvelopeRejectedCounter)
	prometheus.MustRegister(UxasEnvelopeForwardSuccessCounter)
	prometheus.MustRegister(UxasEnvelopeForwardErrorCounter)
	prometheus.MustRegister(UxasEnvelopeReceivedCounter)
	prometheus.MustRegister(UxasEnvelopeReceiveErrorCounter)
}
