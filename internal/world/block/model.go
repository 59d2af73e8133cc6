package block

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

//go:embed assets/models.json
var defaultModels []byte

// ErrModelNotDefined возвращается, если для формы блока нет определения модели
var ErrModelNotDefined = errors.New("model not defined")

// Cuboid - параллелепипед модели в локальных координатах блока [0,1]
type Cuboid struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// UVRect - прямоугольник грани в текселях тайла
type UVRect struct {
	Min [2]uint32
	Max [2]uint32
}

// Corners возвращает UV четырёх углов грани в порядке обхода FaceTemplate
func (r UVRect) Corners() [4][2]uint32 {
	return [4][2]uint32{
		{r.Max[0], r.Max[1]},
		{r.Min[0], r.Max[1]},
		{r.Min[0], r.Min[1]},
		{r.Max[0], r.Min[1]},
	}
}

// Model - набор кубоидов формы и UV шести граней для каждого из них
type Model struct {
	Cubes []Cuboid
	UVs   [][6]UVRect
}

// ModelDefs хранит модели в порядке объявления (include ссылается только назад)
type ModelDefs struct {
	models *orderedmap.OrderedMap[string, *Model]
	shapes [shapeCount]*Model
}

type rawModel struct {
	Includes []string       `yaml:"includes"`
	Cubes    [][][]float32  `yaml:"cubes"`
	UVs      [][][][]uint32 `yaml:"uvs"`
}

// DefaultModelDefs возвращает встроенные определения моделей
func DefaultModelDefs() *ModelDefs {
	defs, err := ParseModelDefs(defaultModels)
	if err != nil {
		panic(fmt.Sprintf("встроенные модели повреждены: %v", err))
	}
	return defs
}

// LoadModelDefs читает определения моделей из файла
func LoadModelDefs(path string) (*ModelDefs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать модели %s: %w", path, err)
	}
	return ParseModelDefs(data)
}

// ParseModelDefs разбирает JSON/YAML с моделями, раскрывает includes и
// проверяет, что для каждой формы блока есть модель.
func ParseModelDefs(data []byte) (*ModelDefs, error) {
	defs, err := parseModels(data)
	if err != nil {
		return nil, err
	}
	if err := defs.resolveShapes(); err != nil {
		return nil, err
	}
	return defs, nil
}

func parseModels(data []byte) (*ModelDefs, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("ошибка разбора моделей: %w", err)
	}

	doc := &root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("ошибка разбора моделей: ожидается объект имя -> модель")
	}

	defs := &ModelDefs{models: orderedmap.NewOrderedMap[string, *Model]()}

	// Порядок ключей важен: include разрешается только по уже объявленным моделям
	for i := 0; i+1 < len(doc.Content); i += 2 {
		name := doc.Content[i].Value

		var raw rawModel
		if err := doc.Content[i+1].Decode(&raw); err != nil {
			return nil, fmt.Errorf("model %q: %w", name, err)
		}

		model, err := raw.build(name)
		if err != nil {
			return nil, err
		}

		for _, include := range raw.Includes {
			included, ok := defs.models.Get(include)
			if !ok {
				return nil, fmt.Errorf("included model %q not found for model %q", include, name)
			}
			model.Cubes = append(model.Cubes, included.Cubes...)
			model.UVs = append(model.UVs, included.UVs...)
		}

		defs.models.Set(name, model)
	}

	return defs, nil
}

func (r rawModel) build(name string) (*Model, error) {
	if len(r.Cubes) != len(r.UVs) {
		return nil, fmt.Errorf("model %q: %d cubes but %d uv sets", name, len(r.Cubes), len(r.UVs))
	}

	model := &Model{
		Cubes: make([]Cuboid, 0, len(r.Cubes)),
		UVs:   make([][6]UVRect, 0, len(r.UVs)),
	}

	for i, c := range r.Cubes {
		if len(c) != 2 || len(c[0]) != 3 || len(c[1]) != 3 {
			return nil, fmt.Errorf("model %q: cube %d must be [[x,y,z],[x,y,z]]", name, i)
		}
		model.Cubes = append(model.Cubes, Cuboid{
			Min: mgl32.Vec3{c[0][0], c[0][1], c[0][2]},
			Max: mgl32.Vec3{c[1][0], c[1][1], c[1][2]},
		})
	}

	for i, set := range r.UVs {
		if len(set) != 6 {
			return nil, fmt.Errorf("model %q: uv set %d must have 6 faces, got %d", name, i, len(set))
		}
		var faces [6]UVRect
		for f, rect := range set {
			if len(rect) != 2 || len(rect[0]) != 2 || len(rect[1]) != 2 {
				return nil, fmt.Errorf("model %q: uv set %d face %d must be [[u,v],[u,v]]", name, i, f)
			}
			faces[f] = UVRect{
				Min: [2]uint32{rect[0][0], rect[0][1]},
				Max: [2]uint32{rect[1][0], rect[1][1]},
			}
		}
		model.UVs = append(model.UVs, faces)
	}

	return model, nil
}

func (d *ModelDefs) resolveShapes() error {
	for s := Shape(0); s < shapeCount; s++ {
		model, ok := d.models.Get(s.ModelKey())
		if !ok {
			return fmt.Errorf("model %q: %w", s.ModelKey(), ErrModelNotDefined)
		}
		d.shapes[s] = model
	}
	return nil
}

// Get возвращает модель по имени
func (d *ModelDefs) Get(name string) (*Model, bool) {
	return d.models.Get(name)
}

// Names возвращает имена моделей в порядке объявления
func (d *ModelDefs) Names() []string {
	return d.models.Keys()
}

// Len возвращает количество моделей
func (d *ModelDefs) Len() int {
	return d.models.Len()
}

// ForBlock возвращает модель формы блока; для воздуха - nil
func (d *ModelDefs) ForBlock(id ID) *Model {
	s := id.Shape()
	if id == Air || s >= shapeCount {
		return nil
	}
	return d.shapes[s]
}
