package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/storage"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/annel0/voxel-engine/internal/world/entity"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrStopped возвращается командам, пришедшим после остановки движка
var ErrStopped = errors.New("engine stopped")

const (
	DefaultTickRate  = 60
	DefaultAspect    = float32(16) / 9
	commandQueueSize = 64
)

// Options - параметры движка. Нулевые значения заменяются значениями по умолчанию.
type Options struct {
	World *world.World
	// Source генерирует чанки; по умолчанию генератор мира
	Source    world.ChunkSource
	Workers   int
	QueueSize int
	TickRate  int
	Aspect    float32

	Store         *storage.WorldStorage
	SnapshotPath  string
	AutosaveEvery time.Duration
}

type command struct {
	fn   func(w *world.World) error
	done chan error
}

// Engine владеет миром и выполняет фиксированный тик.
// Все изменения мира идут через горутину тика; остальные горутины
// передают работу командами через Do.
type Engine struct {
	world  *world.World
	pool   *world.GenerationPool
	meshes *MeshCache

	tickRate int
	aspect   float32

	store         *storage.WorldStorage
	snapshotPath  string
	autosaveEvery time.Duration
	lastSave      time.Time

	commands chan command
	done     chan struct{}
	running  atomic.Bool

	inputMu sync.Mutex
	input   entity.Input

	ticks  atomic.Uint64
	tracer trace.Tracer
}

// NewEngine создаёт движок. Воркеры генерации стартуют в Run.
func NewEngine(opts Options) *Engine {
	if opts.Source == nil {
		opts.Source = opts.World.Generator()
	}
	if opts.Workers < 1 {
		opts.Workers = 4
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 256
	}
	if opts.TickRate < 1 {
		opts.TickRate = DefaultTickRate
	}
	if opts.Aspect <= 0 {
		opts.Aspect = DefaultAspect
	}

	e := &Engine{
		world:         opts.World,
		pool:          world.NewGenerationPool(opts.Source, opts.Workers, opts.QueueSize),
		meshes:        NewMeshCache(),
		tickRate:      opts.TickRate,
		aspect:        opts.Aspect,
		store:         opts.Store,
		snapshotPath:  opts.SnapshotPath,
		autosaveEvery: opts.AutosaveEvery,
		lastSave:      time.Now(),
		commands:      make(chan command, commandQueueSize),
		done:          make(chan struct{}),
		tracer:        otel.Tracer("voxel-engine/app"),
	}
	e.world.SetMeshSink(e.meshes)
	return e
}

// Meshes возвращает кэш мешей
func (e *Engine) Meshes() *MeshCache { return e.meshes }

// Ticks возвращает число выполненных тиков
func (e *Engine) Ticks() uint64 { return e.ticks.Load() }

// TickRate возвращает частоту тиков
func (e *Engine) TickRate() int { return e.tickRate }

// PushInput добавляет события ввода для следующего тика
func (e *Engine) PushInput(events ...entity.Event) {
	e.inputMu.Lock()
	defer e.inputMu.Unlock()
	e.input.Events = append(e.input.Events, events...)
}

// AddMouseDelta накапливает смещение мыши до следующего тика
func (e *Engine) AddMouseDelta(dx, dy float32) {
	e.inputMu.Lock()
	defer e.inputMu.Unlock()
	e.input.MouseDX += dx
	e.input.MouseDY += dy
}

func (e *Engine) takeInput() entity.Input {
	e.inputMu.Lock()
	defer e.inputMu.Unlock()
	in := e.input
	e.input = entity.Input{}
	return in
}

// Do выполняет fn на горутине тика и ждёт результата
func (e *Engine) Do(ctx context.Context, fn func(w *world.World) error) error {
	cmd := command{fn: fn, done: make(chan error, 1)}

	select {
	case e.commands <- cmd:
	case <-e.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.done:
		return err
	case <-e.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run крутит тики до отмены ctx. Ошибка генерации останавливает движок.
// При нормальной остановке мир сохраняется.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("движок уже запущен")
	}
	defer close(e.done)

	e.pool.Start(ctx)
	defer e.pool.Stop()

	interval := time.Second / time.Duration(e.tickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logging.Info("🚀 Движок запущен: %d тиков/с, сид %d", e.tickRate, e.world.Seed())

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			logging.Info("🛑 Движок остановлен после %d тиков", e.ticks.Load())
			if err := e.persist(context.Background()); err != nil {
				logging.Error("❌ Ошибка сохранения при остановке: %v", err)
				return err
			}
			return nil
		case now := <-ticker.C:
			dt := float32(now.Sub(last).Seconds())
			last = now
			if err := e.Tick(ctx, dt); err != nil {
				logging.Error("❌ Движок остановлен с ошибкой: %v", err)
				return err
			}
		}
	}
}

// Tick выполняет один шаг симуляции: команды, результаты генерации,
// запросы чанков, обновление мира, видимость и меши.
func (e *Engine) Tick(ctx context.Context, dt float32) error {
	ctx, span := e.tracer.Start(ctx, "engine.tick")
	defer span.End()

	e.phase(ctx, "tick.commands", func(span trace.Span) {
		span.SetAttributes(attribute.Int("commands", e.runCommands()))
	})

	var drainErr error
	e.phase(ctx, "tick.merge", func(span trace.Span) {
		merged, err := e.world.DrainResults(e.pool.Results())
		span.SetAttributes(attribute.Int("chunks.merged", merged))
		if err != nil {
			span.RecordError(err)
			drainErr = err
		}
	})
	if drainErr != nil {
		span.SetStatus(codes.Error, drainErr.Error())
		return fmt.Errorf("ошибка генерации чанка: %w", drainErr)
	}

	e.phase(ctx, "tick.request", func(span trace.Span) {
		span.SetAttributes(attribute.Int("chunks.requested", e.world.RequestChunks(e.pool)))
	})

	e.phase(ctx, "tick.update", func(trace.Span) {
		e.world.Update(e.takeInput(), dt)
		if _, p, ok := e.world.Player(); ok {
			e.world.UpdateVisibility(p.ViewProjection(e.aspect))
		}
	})

	e.phase(ctx, "tick.mesh", func(span trace.Span) {
		span.SetAttributes(attribute.Int("chunks.meshed", e.world.MeshPhase()))
	})

	e.ticks.Add(1)

	if e.autosaveEvery > 0 && time.Since(e.lastSave) >= e.autosaveEvery {
		if err := e.persist(ctx); err != nil {
			logging.Error("❌ Ошибка автосохранения: %v", err)
		}
	}
	return nil
}

func (e *Engine) phase(ctx context.Context, name string, fn func(span trace.Span)) {
	_, span := e.tracer.Start(ctx, name)
	defer span.End()
	fn(span)
}

// runCommands выполняет накопленные команды без ожидания новых
func (e *Engine) runCommands() int {
	n := 0
	for {
		select {
		case cmd := <-e.commands:
			cmd.done <- cmd.fn(e.world)
			n++
		default:
			return n
		}
	}
}

// Save сохраняет мир на горутине тика
func (e *Engine) Save(ctx context.Context) error {
	return e.Do(ctx, func(*world.World) error {
		return e.persist(ctx)
	})
}

// persist записывает снимок мира в BadgerDB и в файл. Вызывается только из горутины тика.
func (e *Engine) persist(ctx context.Context) error {
	if e.store == nil && e.snapshotPath == "" {
		return nil
	}
	_, span := e.tracer.Start(ctx, "engine.save")
	defer span.End()

	sf := storage.Snapshot(e.world)
	e.lastSave = time.Now()

	if e.store != nil {
		if err := e.store.SaveWorld(sf); err != nil {
			span.RecordError(err)
			return err
		}
	}
	if e.snapshotPath != "" {
		if err := storage.WriteSnapshot(e.snapshotPath, sf); err != nil {
			span.RecordError(err)
			return err
		}
	}
	span.SetAttributes(
		attribute.Int("changes", len(sf.Changes)),
		attribute.Int("entities", len(sf.Entities)),
	)
	return nil
}
