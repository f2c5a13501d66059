package vec

// Side обозначает грань клетки, через которую проходит поток
type Side uint8

const (
	SideTop Side = iota
	SideBottom
	SideNorth
	SideSouth
	SideEast
	SideWest
)

// Opposite возвращает противоположную грань
func (s Side) Opposite() Side {
	switch s {
	case SideTop:
		return SideBottom
	case SideBottom:
		return SideTop
	case SideNorth:
		return SideSouth
	case SideSouth:
		return SideNorth
	case SideEast:
		return SideWest
	default:
		return SideEast
	}
}

// Offset возвращает единичное смещение в сторону грани.
// Север — это -Z, юг — +Z, восток — +X, запад — -X.
func (s Side) Offset() Vec3 {
	switch s {
	case SideTop:
		return Vec3{Y: 1}
	case SideBottom:
		return Vec3{Y: -1}
	case SideNorth:
		return Vec3{Z: -1}
	case SideSouth:
		return Vec3{Z: 1}
	case SideEast:
		return Vec3{X: 1}
	default:
		return Vec3{X: -1}
	}
}

// String возвращает название грани
func (s Side) String() string {
	switch s {
	case SideTop:
		return "top"
	case SideBottom:
		return "bottom"
	case SideNorth:
		return "north"
	case SideSouth:
		return "south"
	case SideEast:
		return "east"
	default:
		return "west"
	}
}

// Orientation задаёт горизонтальное направление растекания
type Orientation uint8

const (
	North Orientation = iota
	East
	South
	West
)

// Orientations — канонический порядок горизонтальных направлений
var Orientations = [4]Orientation{North, East, South, West}

// Offset возвращает единичное горизонтальное смещение
func (o Orientation) Offset() Vec3 {
	switch o {
	case North:
		return Vec3{Z: -1}
	case East:
		return Vec3{X: 1}
	case South:
		return Vec3{Z: 1}
	default:
		return Vec3{X: -1}
	}
}

// Side возвращает грань, соответствующую направлению
func (o Orientation) Side() Side {
	switch o {
	case North:
		return SideNorth
	case East:
		return SideEast
	case South:
		return SideSouth
	default:
		return SideWest
	}
}

// Opposite возвращает противоположное направление
func (o Orientation) Opposite() Orientation {
	return Orientation((uint8(o) + 2) & 3)
}

// String возвращает название направления
func (o Orientation) String() string {
	return o.Side().String()
}
