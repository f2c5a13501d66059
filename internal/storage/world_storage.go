package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/annel0/fluid-sim/internal/fluid"
	"github.com/annel0/fluid-sim/internal/logging"
	"github.com/annel0/fluid-sim/internal/vec"
	"github.com/annel0/fluid-sim/internal/world"
	"github.com/annel0/fluid-sim/internal/world/block"
	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
)

// WorldStorage — хранилище чанков мира поверх BadgerDB.
// Чанки сериализуются в JSON и сжимаются zstd перед записью.
type WorldStorage struct {
	db      *badger.DB
	dbPath  string
	enc     *zstd.Encoder
	dec     *zstd.Decoder
	mutex   sync.RWMutex
	isReady bool
}

// ChunkSnapshot — полное состояние чанка для сериализации.
// Blocks хранит все клетки в порядке индексации чанка, Fluids —
// разреженный список занятых жидкостью клеток.
type ChunkSnapshot struct {
	Coords vec.Vec3    `json:"coords"`
	Blocks []uint16    `json:"blocks"`
	Fluids []FluidCell `json:"fluids,omitempty"`
}

// FluidCell — одна клетка с жидкостью в снимке чанка
type FluidCell struct {
	Index  int   `json:"i"` // Индекс клетки в чанке
	Fluid  uint8 `json:"f"` // Тип жидкости
	Level  int8  `json:"l"` // Уровень
	Static bool  `json:"s,omitempty"`
}

// WorldInfo — метаданные мира, сохраняемые вместе с чанками
type WorldInfo struct {
	Seed    int64     `json:"seed"`
	Bounds  [2]int    `json:"bounds"`
	SavedAt time.Time `json:"saved_at"`
}

// NewWorldStorage создает новое хранилище мира
func NewWorldStorage(dataPath string) (*WorldStorage, error) {
	dbPath := filepath.Join(dataPath, "world")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd-кодировщик: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd-декодировщик: %w", err)
	}

	return &WorldStorage{
		db:      db,
		dbPath:  dbPath,
		enc:     enc,
		dec:     dec,
		isReady: true,
	}, nil
}

// Close закрывает хранилище данных
func (ws *WorldStorage) Close() error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if !ws.isReady {
		return nil
	}

	ws.isReady = false
	ws.enc.Close()
	ws.dec.Close()
	return ws.db.Close()
}

// chunkKey возвращает ключ BadgerDB для чанка
func chunkKey(coords vec.Vec3) []byte {
	return []byte(fmt.Sprintf("chunk:%d:%d:%d", coords.X, coords.Y, coords.Z))
}

// SaveChunk сохраняет чанк. Чанки без изменений пропускаются.
// После успешной записи чанк помечается сохранённым.
func (ws *WorldStorage) SaveChunk(chunk *world.Chunk) error {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return fmt.Errorf("хранилище не готово")
	}
	if !chunk.Dirty() {
		return nil
	}

	snapshot := SnapshotChunk(chunk)
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("ошибка сериализации чанка: %w", err)
	}
	compressed := ws.enc.EncodeAll(data, nil)

	err = ws.db.Update(func(txn *badger.Txn) error {
		return txn.Set(chunkKey(chunk.Coords), compressed)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}

	chunk.MarkSaved()
	return nil
}

// LoadChunk загружает чанк из хранилища. Если чанк не сохранялся,
// возвращается (nil, nil).
func (ws *WorldStorage) LoadChunk(coords vec.Vec3) (*world.Chunk, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	var compressed []byte
	err := ws.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(chunkKey(coords))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			compressed = append([]byte{}, val...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	data, err := ws.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки чанка %v: %w", coords, err)
	}

	var snapshot ChunkSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("ошибка десериализации чанка %v: %w", coords, err)
	}

	return RestoreChunk(&snapshot), nil
}

// SnapshotChunk создаёт снимок чанка для сериализации
func SnapshotChunk(chunk *world.Chunk) *ChunkSnapshot {
	blocks := chunk.ExportBlocks()
	fluids := chunk.ExportFluids()

	snapshot := &ChunkSnapshot{
		Coords: chunk.Coords,
		Blocks: make([]uint16, len(blocks)),
	}
	for i, id := range blocks {
		snapshot.Blocks[i] = uint16(id)
	}
	for i, inst := range fluids {
		if inst.IsEmpty() {
			continue
		}
		snapshot.Fluids = append(snapshot.Fluids, FluidCell{
			Index:  i,
			Fluid:  uint8(inst.ID),
			Level:  int8(inst.Level),
			Static: inst.Static,
		})
	}
	return snapshot
}

// RestoreChunk восстанавливает чанк из снимка. Клетки с неизвестными
// блоками или жидкостями пропускаются: реестр мог измениться между
// запусками.
func RestoreChunk(snapshot *ChunkSnapshot) *world.Chunk {
	logger := logging.GetStorageLogger()

	blocks := make([]block.BlockID, len(snapshot.Blocks))
	for i, raw := range snapshot.Blocks {
		id := block.BlockID(raw)
		if !block.IsValidBlockID(id) {
			logger.Warn("Чанк %v: неизвестный блок %d в клетке %d, заменён воздухом",
				snapshot.Coords, raw, i)
			id = block.AirBlockID
		}
		blocks[i] = id
	}

	fluids := make([]fluid.Instance, world.ChunkVolume)
	for _, cell := range snapshot.Fluids {
		if cell.Index < 0 || cell.Index >= world.ChunkVolume {
			logger.Warn("Чанк %v: индекс жидкости %d вне диапазона", snapshot.Coords, cell.Index)
			continue
		}
		id := fluid.ID(cell.Fluid)
		if _, exists := fluid.Get(id); !exists {
			logger.Warn("Чанк %v: неизвестная жидкость %d в клетке %d",
				snapshot.Coords, cell.Fluid, cell.Index)
			continue
		}
		level := fluid.Level(cell.Level)
		if !level.Valid() {
			logger.Warn("Чанк %v: недопустимый уровень %d в клетке %d",
				snapshot.Coords, cell.Level, cell.Index)
			continue
		}
		fluids[cell.Index] = fluid.Instance{ID: id, Level: level, Static: cell.Static}
	}

	chunk := world.NewChunk(snapshot.Coords)
	chunk.ImportData(blocks, fluids)
	return chunk
}

// SaveWorldInfo сохраняет метаданные мира
func (ws *WorldStorage) SaveWorldInfo(info WorldInfo) error {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("ошибка сериализации метаданных мира: %w", err)
	}

	err = ws.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("world:info"), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения метаданных мира: %w", err)
	}
	return nil
}

// LoadWorldInfo загружает метаданные мира. Если мир ещё не
// сохранялся, возвращается (nil, nil).
func (ws *WorldStorage) LoadWorldInfo() (*WorldInfo, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	var data []byte
	err := ws.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("world:info"))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения метаданных мира: %w", err)
	}

	var info WorldInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("ошибка десериализации метаданных мира: %w", err)
	}
	return &info, nil
}
