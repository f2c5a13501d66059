package block

import "sort"

var registry = make(map[BlockID]Behavior)

// Register добавляет поведение блока в регистр
func Register(id BlockID, behavior Behavior) {
	registry[id] = behavior
}

// Get возвращает поведение для указанного ID
func Get(id BlockID) (Behavior, bool) {
	behavior, exists := registry[id]
	return behavior, exists
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	_, exists := registry[id]
	return exists
}

// All возвращает зарегистрированные поведения в порядке возрастания ID
func All() []Behavior {
	ids := make([]BlockID, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]Behavior, 0, len(ids))
	for _, id := range ids {
		out = append(out, registry[id])
	}
	return out
}

// BlockID представляет идентификатор блока
type BlockID uint16

// Константы ID блоков
const (
	// Базовые типы блоков
	AirBlockID    BlockID = iota // 0
	StoneBlockID                 // 1
	DirtBlockID                  // 2
	GrassBlockID                 // 3
	SandBlockID                  // 4
	GravelBlockID                // 5

	// Для возможности расширения оставляем промежутки между категориями

	// Гидротехнические блоки (начиная с 20)
	LatticeBlockID BlockID = 20 // Решётка: пропускает поток вбок, удерживает сверху
	DrainBlockID   BlockID = 21 // Слив: принимает сверху, выпускает только вниз
)
