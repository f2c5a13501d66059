package fluid

// DensityResolver — правило контакта по умолчанию: более плотная жидкость
// вытесняет менее плотную и занимает её клетку. Если приёмник не легче
// источника, контакт не разрешается и поток ищет другой путь.
type DensityResolver struct {
	sched Scheduler
}

// NewDensityResolver создаёт обработчик контакта поверх планировщика
func NewDensityResolver(sched Scheduler) *DensityResolver {
	return &DensityResolver{sched: sched}
}

// HandleContact вытесняет менее плотную жидкость приёмника: её объём
// уничтожается, объём источника переезжает в освободившуюся клетку.
// При равной или большей плотности приёмника возвращает false.
func (r *DensityResolver) HandleContact(g Grid, src, dst Contact) bool {
	a := MustGet(src.ID)
	b := MustGet(dst.ID)
	if a.Density <= b.Density {
		return false
	}

	// Объём приёмника пропадает, источник занимает его место
	r.sched.CancelTick(dst.Pos, dst.ID)
	g.SetFluid(dst.Pos, Instance{ID: src.ID, Level: src.Level, Static: false})
	r.sched.ScheduleTick(dst.Pos, src.ID, a.Viscosity)

	g.ResetFluid(src.Pos)
	r.sched.CancelTick(src.Pos, src.ID)
	return true
}
