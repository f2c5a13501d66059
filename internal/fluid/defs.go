package fluid

// Встроенные типы жидкостей
const (
	WaterID ID = 1 // вода: быстрая, стекает вниз
	LavaID  ID = 2 // лава: вязкая, плотная, горячая
	SteamID ID = 3 // пар: лёгкий, поднимается вверх
)

func init() {
	Register(Fluid{
		ID:              WaterID,
		Name:            "water",
		Kind:            KindBasic,
		Density:         1000,
		Viscosity:       1,
		Flow:            Downward,
		ChecksContact:   true,
		ReceivesContact: true,
	})
	Register(Fluid{
		ID:              LavaID,
		Name:            "lava",
		Kind:            KindHot,
		Density:         3100,
		Viscosity:       12,
		Flow:            Downward,
		ChecksContact:   true,
		ReceivesContact: true,
	})
	Register(Fluid{
		ID:              SteamID,
		Name:            "steam",
		Kind:            KindGas,
		Density:         0.6,
		Viscosity:       1,
		Flow:            Upward,
		ChecksContact:   false,
		ReceivesContact: true,
	})
}
