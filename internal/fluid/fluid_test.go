package fluid

import "testing"

func TestRegistryBuiltins(t *testing.T) {
	water, exists := Get(WaterID)
	if !exists {
		t.Fatal("вода должна быть зарегистрирована")
	}
	if water.Flow != Downward || water.Viscosity != 1 {
		t.Errorf("свойства воды неверны: %+v", water)
	}

	lava := MustGet(LavaID)
	if lava.Kind != KindHot || lava.Viscosity <= water.Viscosity {
		t.Errorf("лава должна быть горячей и заметно вязче воды: %+v", lava)
	}

	steam, exists := GetByName("steam")
	if !exists || steam.Flow != Upward {
		t.Errorf("пар должен находиться по имени и всплывать, получено %+v", steam)
	}
}

func TestRegistryOrder(t *testing.T) {
	all := All()
	if len(all) < 3 {
		t.Fatalf("встроенных типов должно быть не меньше трёх, получено %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Errorf("список должен быть отсортирован по ID: %d перед %d", all[i-1].ID, all[i].ID)
		}
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	Register(Fluid{ID: 200, Name: "test-brine", Density: 1200, Viscosity: 2, Flow: Downward})

	defer func() {
		if recover() == nil {
			t.Error("повторная регистрация ID должна вызывать панику")
		}
	}()
	Register(Fluid{ID: 200, Name: "test-brine-2", Density: 1200, Viscosity: 2, Flow: Downward})
}

func TestRegisterRejectsNone(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("регистрация None должна вызывать панику")
		}
	}()
	Register(Fluid{ID: None, Name: "test-void"})
}

func TestMustGetUnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("запрос незарегистрированного типа должен вызывать панику")
		}
	}()
	MustGet(250)
}

func TestInstanceIsEmpty(t *testing.T) {
	if !(Instance{}).IsEmpty() {
		t.Error("нулевой экземпляр должен быть пустым")
	}
	if (Instance{ID: WaterID, Level: LevelOne}).IsEmpty() {
		t.Error("экземпляр с жидкостью не должен быть пустым")
	}
}
