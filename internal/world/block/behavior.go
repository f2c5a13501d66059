package block

// Behavior определяет поведение типа блока.
// Блоки, способные содержать жидкость, дополнительно реализуют
// интерфейс fluid.Fillable и управляют потоком через свои грани.
type Behavior interface {
	ID() BlockID
	Name() string
}
