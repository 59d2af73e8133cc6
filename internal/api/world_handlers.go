package api

import (
	"net/http"
	"strconv"

	"github.com/annel0/voxel-engine/internal/app"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/gin-gonic/gin"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/samber/lo"
)

// StatsResponse - состояние мира, движка и процесса
type StatsResponse struct {
	World    world.Stats  `json:"world"`
	Ticks    uint64       `json:"ticks"`
	TickRate int          `json:"tick_rate"`
	Meshes   int          `json:"meshes"`
	Geometry app.MeshInfo `json:"geometry"`
	Process  ProcessStats `json:"process"`
}

// PlayerResponse - состояние игрока
type PlayerResponse struct {
	ID       string     `json:"id"`
	Position [3]float32 `json:"position"`
	Velocity [3]float32 `json:"velocity"`
	Chunk    vec.Vec3   `json:"chunk"`
	Yaw      float32    `json:"yaw"`
	Pitch    float32    `json:"pitch"`
	FOV      float32    `json:"fov"`
	Selected string     `json:"selected"`
	Airborne bool       `json:"airborne"`
}

// TeleportRequest - новая позиция игрока
type TeleportRequest struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// FOVRequest - угол обзора в градусах
type FOVRequest struct {
	FOV float32 `json:"fov" binding:"required,gt=0,lt=180"`
}

// SelectRequest - выбор блока для установки по индексу или имени
type SelectRequest struct {
	Index *int   `json:"index"`
	Block string `json:"block"`
}

// BlockRequest - установка блока по имени
type BlockRequest struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Z     int    `json:"z"`
	Block string `json:"block" binding:"required"`
}

// BlockResponse - блок в мировой позиции
type BlockResponse struct {
	Position vec.Vec3 `json:"position"`
	Block    string   `json:"block"`
	Loaded   bool     `json:"loaded"`
}

func (rs *RestServer) handleSeed(c *gin.Context) {
	var seed int32
	if err := rs.engine.Do(c.Request.Context(), func(w *world.World) error {
		seed = w.Seed()
		return nil
	}); err != nil {
		engineError(c, err)
		return
	}
	ok(c, "Сид мира", gin.H{"seed": seed})
}

func (rs *RestServer) handleStats(c *gin.Context) {
	resp := StatsResponse{
		Ticks:    rs.engine.Ticks(),
		TickRate: rs.engine.TickRate(),
		Meshes:   rs.engine.Meshes().Len(),
		Geometry: rs.engine.Meshes().Totals(),
		Process:  rs.metrics.Snapshot(),
	}
	if err := rs.engine.Do(c.Request.Context(), func(w *world.World) error {
		resp.World = w.Stats()
		return nil
	}); err != nil {
		engineError(c, err)
		return
	}
	ok(c, "Статистика получена", resp)
}

func (rs *RestServer) handlePlayer(c *gin.Context) {
	var (
		resp  PlayerResponse
		found bool
	)
	if err := rs.engine.Do(c.Request.Context(), func(w *world.World) error {
		id, p, exists := w.Player()
		if !exists {
			return nil
		}
		found = true
		yaw, pitch := p.Rotation()
		_, selected := p.Selected()
		resp = PlayerResponse{
			ID:       id.String(),
			Position: p.Position(),
			Velocity: p.Velocity(),
			Chunk:    w.PlayerChunk(),
			Yaw:      yaw,
			Pitch:    pitch,
			FOV:      p.FOV(),
			Selected: selected.String(),
			Airborne: p.IsAirborne(),
		}
		return nil
	}); err != nil {
		engineError(c, err)
		return
	}
	if !found {
		fail(c, http.StatusNotFound, "Игрок не найден")
		return
	}
	ok(c, "Игрок", resp)
}

func (rs *RestServer) handleTeleport(c *gin.Context) {
	var req TeleportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}

	found := false
	if err := rs.engine.Do(c.Request.Context(), func(w *world.World) error {
		if _, p, exists := w.Player(); exists {
			p.Teleport(mgl32.Vec3{req.X, req.Y, req.Z})
			found = true
		}
		return nil
	}); err != nil {
		engineError(c, err)
		return
	}
	if !found {
		fail(c, http.StatusNotFound, "Игрок не найден")
		return
	}
	ok(c, "Игрок перемещён", req)
}

func (rs *RestServer) handleFOV(c *gin.Context) {
	var req FOVRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Угол обзора должен быть в диапазоне (0, 180)")
		return
	}

	found := false
	if err := rs.engine.Do(c.Request.Context(), func(w *world.World) error {
		if _, p, exists := w.Player(); exists {
			p.SetFOV(req.FOV)
			found = true
		}
		return nil
	}); err != nil {
		engineError(c, err)
		return
	}
	if !found {
		fail(c, http.StatusNotFound, "Игрок не найден")
		return
	}
	ok(c, "Угол обзора изменён", req)
}

func (rs *RestServer) handleSelect(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}

	index := 0
	switch {
	case req.Block != "":
		id, known := block.Parse(req.Block)
		if !known {
			fail(c, http.StatusBadRequest, "Неизвестный блок: "+req.Block)
			return
		}
		if index = lo.IndexOf(block.Placeable[:], id); index < 0 {
			fail(c, http.StatusBadRequest, "Блок нельзя установить: "+req.Block)
			return
		}
	case req.Index != nil:
		index = *req.Index
	default:
		fail(c, http.StatusBadRequest, "Требуется index или block")
		return
	}

	var (
		selected block.ID
		found    bool
	)
	if err := rs.engine.Do(c.Request.Context(), func(w *world.World) error {
		if _, p, exists := w.Player(); exists {
			p.SetSelected(index)
			index, selected = p.Selected()
			found = true
		}
		return nil
	}); err != nil {
		engineError(c, err)
		return
	}
	if !found {
		fail(c, http.StatusNotFound, "Игрок не найден")
		return
	}
	ok(c, "Блок выбран", gin.H{"index": index, "block": selected.String()})
}

// parsePosition читает x, y, z из query-параметров
func parsePosition(c *gin.Context) (vec.Vec3, bool) {
	var pos vec.Vec3
	for _, f := range []struct {
		name string
		dst  *int
	}{{"x", &pos.X}, {"y", &pos.Y}, {"z", &pos.Z}} {
		v, err := strconv.Atoi(c.Query(f.name))
		if err != nil {
			return pos, false
		}
		*f.dst = v
	}
	return pos, true
}

func (rs *RestServer) handleGetBlock(c *gin.Context) {
	pos, valid := parsePosition(c)
	if !valid {
		fail(c, http.StatusBadRequest, "Требуются целые x, y, z")
		return
	}

	resp := BlockResponse{Position: pos}
	if err := rs.engine.Do(c.Request.Context(), func(w *world.World) error {
		key := world.KeyFor(pos)
		resp.Loaded = w.ChunkExists(key.Chunk)
		resp.Block = w.Block(pos.X, pos.Y, pos.Z).String()
		return nil
	}); err != nil {
		engineError(c, err)
		return
	}
	ok(c, "Блок", resp)
}

func (rs *RestServer) handleSetBlock(c *gin.Context) {
	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}
	id, known := block.Parse(req.Block)
	if !known {
		fail(c, http.StatusBadRequest, "Неизвестный блок: "+req.Block)
		return
	}

	if err := rs.engine.Do(c.Request.Context(), func(w *world.World) error {
		w.SetBlock(req.X, req.Y, req.Z, id)
		return nil
	}); err != nil {
		engineError(c, err)
		return
	}
	ok(c, "Блок установлен", BlockResponse{
		Position: vec.Vec3{X: req.X, Y: req.Y, Z: req.Z},
		Block:    id.String(),
	})
}

func (rs *RestServer) handleBreakBlock(c *gin.Context) {
	pos, valid := parsePosition(c)
	if !valid {
		fail(c, http.StatusBadRequest, "Требуются целые x, y, z")
		return
	}

	var before block.ID
	if err := rs.engine.Do(c.Request.Context(), func(w *world.World) error {
		before = w.Block(pos.X, pos.Y, pos.Z)
		w.BreakBlock(pos.X, pos.Y, pos.Z)
		return nil
	}); err != nil {
		engineError(c, err)
		return
	}
	ok(c, "Блок сломан", gin.H{"position": pos, "was": before.String()})
}

func (rs *RestServer) handleSave(c *gin.Context) {
	if err := rs.engine.Save(c.Request.Context()); err != nil {
		engineError(c, err)
		return
	}
	ok(c, "Мир сохранён", nil)
}
