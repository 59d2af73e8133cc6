package world

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/getsentry/sentry-go"
)

// ErrWorkerPanic означает, что воркер генерации упал. Движок должен остановиться.
var ErrWorkerPanic = errors.New("generation worker panicked")

// ChunkSource генерирует чанк и блоки, вышедшие за его границы
type ChunkSource interface {
	Generate(coords vec.Vec3) (*Chunk, Overspill)
}

// GenerationResult - результат работы воркера
type GenerationResult struct {
	Coords    vec.Vec3
	Chunk     *Chunk
	Overspill Overspill
	Duration  time.Duration
	Err       error
}

// GenerationPool - пул воркеров генерации с очередью задач и очередью результатов
type GenerationPool struct {
	source  ChunkSource
	workers int
	tasks   chan vec.Vec3
	results chan GenerationResult

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewGenerationPool создаёт пул. Воркеры запускаются в Start.
func NewGenerationPool(source ChunkSource, workers, queueSize int) *GenerationPool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &GenerationPool{
		source:  source,
		workers: workers,
		tasks:   make(chan vec.Vec3, queueSize),
		results: make(chan GenerationResult, queueSize),
	}
}

// Start запускает воркеры. Они работают до отмены ctx или вызова Stop.
func (p *GenerationPool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	logging.Info("⚙️ Пул генерации запущен: %d воркеров", p.workers)
}

// Stop останавливает воркеры и ждёт их завершения
func (p *GenerationPool) Stop() {
	p.once.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
		p.wg.Wait()
		logging.Info("⚙️ Пул генерации остановлен")
	})
}

// Submit ставит чанк в очередь без блокировки. false - очередь заполнена.
func (p *GenerationPool) Submit(coords vec.Vec3) bool {
	select {
	case p.tasks <- coords:
		return true
	default:
		return false
	}
}

// Results возвращает канал готовых чанков
func (p *GenerationPool) Results() <-chan GenerationResult {
	return p.results
}

func (p *GenerationPool) worker(ctx context.Context, n int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case coords := <-p.tasks:
			res := p.generate(n, coords)
			select {
			case p.results <- res:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (p *GenerationPool) generate(n int, coords vec.Vec3) (res GenerationResult) {
	start := time.Now()

	defer func() {
		if err := recover(); err != nil {
			hub := sentry.CurrentHub().Clone()
			hub.ConfigureScope(func(scope *sentry.Scope) {
				scope.SetTag("worker", strconv.Itoa(n))
				scope.SetTag("chunk", coords.String())
			})
			hub.Recover(fmt.Errorf("generation worker crashed: %v", err))
			hub.Flush(time.Second * 5)

			logging.Error("💥 Воркер %d упал на чанке %s: %v", n, coords, err)
			res = GenerationResult{
				Coords: coords,
				Err:    fmt.Errorf("%w: чанк %s: %v", ErrWorkerPanic, coords, err),
			}
		}
	}()

	chunk, overspill := p.source.Generate(coords)
	elapsed := time.Since(start)

	generatedChunks.Inc()
	generationSeconds.Observe(elapsed.Seconds())

	return GenerationResult{
		Coords:    coords,
		Chunk:     chunk,
		Overspill: overspill,
		Duration:  elapsed,
	}
}
