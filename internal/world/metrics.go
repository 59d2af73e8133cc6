package world

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Метрики мира регистрируются в глобальном регистре один раз на процесс
var (
	generatedChunks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "voxel",
		Name:      "chunks_generated_total",
		Help:      "Количество сгенерированных чанков.",
	})
	generationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "voxel",
		Name:      "chunk_generation_seconds",
		Help:      "Время генерации одного чанка.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
	droppedResults = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "voxel",
		Name:      "generation_results_dropped_total",
		Help:      "Результаты генерации, отброшенные из-за выхода чанка из радиуса.",
	})
	meshedChunks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "voxel",
		Name:      "chunks_meshed_total",
		Help:      "Количество построенных мешей чанков.",
	})
	meshSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "voxel",
		Name:      "mesh_phase_seconds",
		Help:      "Длительность фазы построения мешей.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
	residentChunks = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "voxel",
		Name:      "chunks_resident",
		Help:      "Количество загруженных чанков.",
	})
	visibleChunks = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "voxel",
		Name:      "chunks_visible",
		Help:      "Количество чанков в пирамиде видимости.",
	})
	entityCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "voxel",
		Name:      "entities",
		Help:      "Количество зарегистрированных сущностей.",
	})

	metricsOnce sync.Once
)

// RegisterMetrics регистрирует метрики мира в prometheus.DefaultRegisterer.
// Повторные вызовы ничего не делают.
func RegisterMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(
			generatedChunks,
			generationSeconds,
			droppedResults,
			meshedChunks,
			meshSeconds,
			residentChunks,
			visibleChunks,
			entityCount,
		)
	})
}
