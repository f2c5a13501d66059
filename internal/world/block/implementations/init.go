package implementations

import "github.com/annel0/fluid-sim/internal/world/block"

// Регистрируем все типы блоков при импорте пакета
func init() {
	// Базовые блоки
	block.Register(block.AirBlockID, &AirBehavior{})
	block.Register(block.StoneBlockID, &StoneBehavior{})
	block.Register(block.DirtBlockID, &DirtBehavior{})
	block.Register(block.GrassBlockID, &GrassBehavior{})
	block.Register(block.SandBlockID, &SandBehavior{})
	block.Register(block.GravelBlockID, &GravelBehavior{})

	// Гидротехнические блоки
	block.Register(block.LatticeBlockID, &LatticeBehavior{})
	block.Register(block.DrainBlockID, &DrainBehavior{})
}
