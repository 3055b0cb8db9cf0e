package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests     uint64
	errorRequests     uint64
	totalDurationMs   uint64
	payrollRuns       uint64
	recordsComputed   uint64
	payslipsGenerated uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) RecordRun(recordsComputed int) {
	atomic.AddUint64(&c.payrollRuns, 1)
	atomic.AddUint64(&c.recordsComputed, uint64(recordsComputed))
}

func (c *Collector) RecordPayslips(generated int) {
	atomic.AddUint64(&c.payslipsGenerated, uint64(generated))
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":          total,
		"errorsTotal":            atomic.LoadUint64(&c.errorRequests),
		"avgDurationMs":          avg,
		"totalDurationMs":        totalMs,
		"payrollRunsTotal":       atomic.LoadUint64(&c.payrollRuns),
		"recordsComputedTotal":   atomic.LoadUint64(&c.recordsComputed),
		"payslipsGeneratedTotal": atomic.LoadUint64(&c.payslipsGenerated),
	}
}
