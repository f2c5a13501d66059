package fluid

import (
	"sort"

	"github.com/annel0/fluid-sim/internal/vec"
)

// DefaultChunkTickCap ограничивает число тиков жидкости, обрабатываемых
// в одном чанке за кадр. Лишние тики переносятся на следующие кадры:
// это защита от лавинообразных возмущений, а не гарантия сходимости за кадр.
const DefaultChunkTickCap = 1024

type tickKey struct {
	pos vec.Vec3
	id  ID
}

type pendingTick struct {
	seq uint64
	due uint64
}

type tickTask struct {
	pos vec.Vec3
	id  ID
	due uint64
	seq uint64
}

// SchedulerStats описывает счётчики планировщика
type SchedulerStats struct {
	Frame     uint64 // номер текущего кадра
	Processed uint64 // выполненных тиков
	Deferred  uint64 // перенесённых из-за лимита на чанк
	Stale     uint64 // пропущенных устаревших записей
	Pending   int    // активных ожидающих тиков
}

// TickScheduler хранит отложенные обновления жидкости, сгруппированные
// по чанкам. Планировщик детерминирован: чанки обходятся в отсортированном
// порядке, задачи внутри чанка — в порядке постановки.
//
// Не потокобезопасен: все вызовы выполняет цикл симуляции.
type TickScheduler struct {
	frame    uint64
	seq      uint64
	chunkCap int
	queues   map[vec.Vec3][]tickTask
	pending  map[tickKey]pendingTick
	stats    SchedulerStats
}

// NewTickScheduler создаёт планировщик с заданным лимитом тиков на чанк.
// Неположительный лимит заменяется на DefaultChunkTickCap.
func NewTickScheduler(chunkCap int) *TickScheduler {
	if chunkCap <= 0 {
		chunkCap = DefaultChunkTickCap
	}
	return &TickScheduler{
		chunkCap: chunkCap,
		queues:   make(map[vec.Vec3][]tickTask),
		pending:  make(map[tickKey]pendingTick),
	}
}

// ScheduleTick ставит тик для пары (позиция, жидкость) через delay кадров.
// Задержка меньше кадра поднимается до одного кадра. Если тик уже ожидает,
// повторная постановка игнорируется.
func (s *TickScheduler) ScheduleTick(pos vec.Vec3, id ID, delay int) {
	if delay < 1 {
		delay = 1
	}
	key := tickKey{pos, id}
	if _, exists := s.pending[key]; exists {
		return
	}
	s.push(key, s.frame+uint64(delay))
}

// TickSoon требует переоценку клетки на ближайшем кадре. Уже ожидающий
// тик с более поздним сроком заменяется.
func (s *TickScheduler) TickSoon(pos vec.Vec3, id ID) {
	key := tickKey{pos, id}
	due := s.frame + 1
	if p, exists := s.pending[key]; exists {
		if p.due <= due {
			return
		}
		delete(s.pending, key)
	}
	s.push(key, due)
}

// CancelTick снимает ожидающий тик. Запись в очереди чанка остаётся,
// но будет пропущена как устаревшая.
func (s *TickScheduler) CancelTick(pos vec.Vec3, id ID) {
	delete(s.pending, tickKey{pos, id})
}

// push регистрирует новую задачу в очереди её чанка
func (s *TickScheduler) push(key tickKey, due uint64) {
	s.seq++
	s.pending[key] = pendingTick{seq: s.seq, due: due}

	chunk := key.pos.ToChunkCoords()
	s.queues[chunk] = append(s.queues[chunk], tickTask{
		pos: key.pos,
		id:  key.id,
		due: due,
		seq: s.seq,
	})
}

// Frame возвращает номер текущего кадра
func (s *TickScheduler) Frame() uint64 {
	return s.frame
}

// Pending возвращает число активных ожидающих тиков
func (s *TickScheduler) Pending() int {
	return len(s.pending)
}

// Advance переводит планировщик на следующий кадр и выполняет все
// созревшие тики через run. Тики, поставленные изнутри run, созревают
// не раньше следующего кадра.
func (s *TickScheduler) Advance(run func(pos vec.Vec3, id ID)) {
	s.frame++

	chunks := make([]vec.Vec3, 0, len(s.queues))
	for c := range s.queues {
		chunks = append(chunks, c)
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Less(chunks[j]) })

	for _, c := range chunks {
		queue := s.queues[c]
		// Отцепляем очередь: задачи, поставленные во время обработки,
		// попадают в свежий срез и не смешиваются с текущим обходом
		delete(s.queues, c)

		budget := s.chunkCap
		rest := queue[:0]
		for _, task := range queue {
			key := tickKey{task.pos, task.id}
			p, active := s.pending[key]
			if !active || p.seq != task.seq {
				s.stats.Stale++
				continue
			}
			if task.due > s.frame {
				rest = append(rest, task)
				continue
			}
			if budget == 0 {
				rest = append(rest, task)
				s.stats.Deferred++
				continue
			}
			budget--
			delete(s.pending, key)
			s.stats.Processed++
			run(task.pos, task.id)
		}

		if added := s.queues[c]; len(added) > 0 {
			rest = append(rest, added...)
		}
		if len(rest) > 0 {
			s.queues[c] = rest
		} else {
			delete(s.queues, c)
		}
	}
}

// Stats возвращает снимок счётчиков планировщика
func (s *TickScheduler) Stats() SchedulerStats {
	st := s.stats
	st.Frame = s.frame
	st.Pending = len(s.pending)
	return st
}
