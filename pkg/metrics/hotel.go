package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// HotelMetrics counts inventory and booking events worth alerting on.
// All methods are safe on a nil receiver.
type HotelMetrics struct {
	bulkUpdates   *prometheus.CounterVec
	bulkEntries   prometheus.Counter
	shortfalls    *prometheus.CounterVec
	decisions     *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

func NewHotelMetrics(reg prometheus.Registerer) *HotelMetrics {
	if reg == nil {
		return &HotelMetrics{}
	}
	m := &HotelMetrics{
		bulkUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hotel_inventory_bulk_updates_total",
			Help: "Bulk rate/inventory updates by outcome.",
		}, []string{"result"}),
		bulkEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hotel_inventory_bulk_entries_total",
			Help: "Room-date entries written by bulk updates.",
		}),
		shortfalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hotel_inventory_shortfall_nights_total",
			Help: "Nights that could not be decremented because stock was already zero.",
		}, []string{"room_id"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hotel_booking_decisions_total",
			Help: "Booking approvals and rejections.",
		}, []string{"status"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hotel_notifications_total",
			Help: "Notification requests by template kind and outcome.",
		}, []string{"kind", "result"}),
	}
	reg.MustRegister(m.bulkUpdates, m.bulkEntries, m.shortfalls, m.decisions, m.notifications)
	return m
}

func (m *HotelMetrics) ObserveBulkUpdate(result string, entries int) {
	if m == nil || m.bulkUpdates == nil {
		return
	}
	m.bulkUpdates.WithLabelValues(normalizeLabel(result)).Inc()
	if entries > 0 {
		m.bulkEntries.Add(float64(entries))
	}
}

func (m *HotelMetrics) ObserveShortfall(roomID, nights int) {
	if m == nil || m.shortfalls == nil || nights <= 0 {
		return
	}
	m.shortfalls.WithLabelValues(strconv.Itoa(roomID)).Add(float64(nights))
}

func (m *HotelMetrics) ObserveBookingDecision(status string) {
	if m == nil || m.decisions == nil {
		return
	}
	m.decisions.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *HotelMetrics) ObserveNotification(kind, result string) {
	if m == nil || m.notifications == nil {
		return
	}
	m.notifications.WithLabelValues(normalizeLabel(kind), normalizeLabel(result)).Inc()
}
