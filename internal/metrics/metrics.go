// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quizroom_rooms_active",
		Help: "Rooms currently open.",
	})
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quizroom_connections_active",
		Help: "Open host and participant websocket connections.",
	})
	RoomsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizroom_rooms_created_total",
		Help: "Rooms created.",
	})
	RoomsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quizroom_rooms_closed_total",
		Help: "Rooms closed, by reason.",
	}, []string{"reason"})
	Answers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quizroom_answers_total",
		Help: "Accepted classic-mode answers, by question kind.",
	}, []string{"kind"})
	Buzzes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quizroom_buzzes_total",
		Help: "Bowl buzzes, by result (won, late).",
	}, []string{"result"})
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizroom_events_dropped_total",
		Help: "Events not delivered because a channel was too slow.",
	})
)
