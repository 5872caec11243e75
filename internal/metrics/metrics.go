package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Issuance outcomes used as the status label.
const (
	StatusSuccess         = "success"
	StatusInvalidCampaign = "invalid_campaign"
	StatusNotOpen         = "not_open"
	StatusExhausted       = "exhausted"
	StatusInvalidClaimant = "invalid_claimant"
	StatusFailed          = "failed"
)

var (
	// IssueVoucherDuration tracks the latency of voucher issuance by outcome.
	IssueVoucherDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "discounter",
			Name:      "issue_voucher_duration_seconds",
			Help:      "Duration of voucher issuance requests in seconds",
			Buckets: []float64{
				0.0005, // 0.5ms
				0.001,  // 1ms
				0.005,  // 5ms
				0.01,   // 10ms
				0.025,  // 25ms
				0.05,   // 50ms
				0.1,    // 100ms
				0.25,   // 250ms
				0.5,    // 500ms
				1.0,    // 1s
				2.5,    // 2.5s
			},
		},
		[]string{"status"},
	)

	// VouchersIssued counts vouchers handed out.
	VouchersIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "discounter",
		Name:      "vouchers_issued_total",
		Help:      "Total number of vouchers issued",
	})

	// CampaignsRegistered counts registered campaigns.
	CampaignsRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "discounter",
		Name:      "campaigns_registered_total",
		Help:      "Total number of campaigns registered",
	})
)

// RecordIssueVoucher records the duration of an issuance attempt and counts
// successful ones.
func RecordIssueVoucher(status string, duration float64) {
	IssueVoucherDuration.WithLabelValues(status).Observe(duration)
	if status == StatusSuccess {
		VouchersIssued.Inc()
	}
}

// RecordCampaignRegistered counts one registration.
func RecordCampaignRegistered() {
	CampaignsRegistered.Inc()
}
