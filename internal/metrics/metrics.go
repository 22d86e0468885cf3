package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crownside",
			Name:      "booking_created_total",
			Help:      "Count of bookings created by kind.",
		},
		[]string{"kind"}, // booking | blockout
	)

	slotRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "crownside",
			Name:      "slot_rejected_total",
			Help:      "Count of booking attempts rejected by availability rules.",
		},
	)

	availabilityCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crownside",
			Name:      "availability_cache_total",
			Help:      "Availability day-snapshot cache lookups by result.",
		},
		[]string{"result"}, // hit | miss
	)
)

// Register 注册全部指标（幂等）
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, slotRejected, availabilityCache)
	})
}

// IncBookingCreated 预约/屏蔽时段创建计数
func IncBookingCreated(kind string) {
	bookingCreated.WithLabelValues(kind).Inc()
}

// IncSlotRejected 可用性规则拒绝计数
func IncSlotRejected() {
	slotRejected.Inc()
}

// IncCacheHit 可用性缓存命中计数
func IncCacheHit() {
	availabilityCache.WithLabelValues("hit").Inc()
}

// IncCacheMiss 可用性缓存未命中计数
func IncCacheMiss() {
	availabilityCache.WithLabelValues("miss").Inc()
}
